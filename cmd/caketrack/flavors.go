package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/caketrack/caketrack/internal/schema"
)

var flavorsCmd = &cobra.Command{
	Use:   "flavors",
	Short: "Manage the flavor catalog",
}

var flavorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all catalog flavors",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		recs, err := a.store.GetAll(context.Background(), schema.KindFlavors)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		flavors := make([]*schema.Flavor, 0, len(recs))
		for _, rec := range recs {
			flavors = append(flavors, rec.(*schema.Flavor))
		}
		sort.Slice(flavors, func(i, j int) bool { return flavors[i].Name < flavors[j].Name })

		for _, f := range flavors {
			fmt.Printf("%-20s %8.2f/kg\n", f.Name, f.PricePerKg)
		}
	},
}

var flavorsAddCmd = &cobra.Command{
	Use:   "add <name> <price-per-kg>",
	Short: "Add or update a catalog flavor",
	Long: `Add a flavor, or overwrite its price if the exact name already
exists. Names are case-sensitive in the store: "Chocolate" and "chocolate"
are two entries.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		price, err := strconv.ParseFloat(args[1], 64)
		if err != nil || price <= 0 {
			fmt.Fprintf(os.Stderr, "Error: price must be a positive number\n")
			os.Exit(1)
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		f := &schema.Flavor{Name: args[0], PricePerKg: price}
		if err := a.store.Put(context.Background(), schema.KindFlavors, f); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved flavor %s (%.2f/kg)\n", f.Name, f.PricePerKg)
	},
}

var flavorsRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a catalog flavor",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if err := a.store.Delete(context.Background(), schema.KindFlavors, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed flavor %s\n", args[0])
	},
}

func init() {
	flavorsCmd.AddCommand(flavorsListCmd)
	flavorsCmd.AddCommand(flavorsAddCmd)
	flavorsCmd.AddCommand(flavorsRmCmd)
	rootCmd.AddCommand(flavorsCmd)
}
