package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledger-cli",
		Short: "Ledger service CLI tool",
		Long:  `A command line interface for operating the ledger service.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Integrity checks",
	}

	verifyCmd.AddCommand(&cobra.Command{
		Use:   "solvency",
		Short: "Check that the system reserve offsets all other balances",
		Run: func(cmd *cobra.Command, args []string) {
			verifySolvency()
		},
	})

	verifyCmd.AddCommand(&cobra.Command{
		Use:   "chain",
		Short: "Walk the full ledger hash chain and verify every entry",
		Run: func(cmd *cobra.Command, args []string) {
			verifyChain()
		},
	})

	reverseCmd := &cobra.Command{
		Use:   "reverse <transaction-id>",
		Short: "Reverse a completed transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			reason, _ := cmd.Flags().GetString("reason")
			reversedBy, _ := cmd.Flags().GetString("by")
			reverseTransaction(args[0], reason, reversedBy)
		},
	}
	reverseCmd.Flags().String("reason", "", "Reason for the reversal")
	reverseCmd.Flags().String("by", "cli", "Operator performing the reversal")
	reverseCmd.MarkFlagRequired("reason")

	rootCmd.AddCommand(verifyCmd, reverseCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getJSON(path string) map[string]any {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	return result
}

func verifySolvency() {
	result := getJSON("/api/v1/ledger/verify")

	balanced, _ := result["is_balanced"].(bool)
	if balanced {
		fmt.Println("Solvency check PASSED")
	} else {
		fmt.Println("Solvency check FAILED")
	}

	if perCurrency, ok := result["per_currency"].(map[string]any); ok {
		for currency, raw := range perCurrency {
			report, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			fmt.Printf("  %s: reserve=%v other=%v difference=%v balanced=%v\n",
				currency, report["system_reserve"], report["total_other"],
				report["difference"], report["is_balanced"])
		}
	}

	if !balanced {
		os.Exit(1)
	}
}

func verifyChain() {
	result := getJSON("/api/v1/ledger/chain/verify")

	valid, _ := result["valid"].(bool)
	entries, _ := result["entries_total"].(float64)

	if valid {
		fmt.Printf("Chain verification PASSED (%d entries)\n", int(entries))
		return
	}

	fmt.Printf("Chain verification FAILED at entry %v (%d entries checked)\n",
		result["broken_at"], int(entries))
	os.Exit(1)
}

func reverseTransaction(transactionID, reason, reversedBy string) {
	payload, _ := json.Marshal(map[string]string{
		"reason":      reason,
		"reversed_by": reversedBy,
	})

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(
		baseURL+"/api/v1/transactions/"+transactionID+"/reverse",
		"application/json",
		strings.NewReader(string(payload)),
	)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusCreated {
		fmt.Printf("Reversal FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Reversal created: transaction=%v entry=%v\n",
		result["reversal_transaction_id"], result["ledger_entry_id"])
}
