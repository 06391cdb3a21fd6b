package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caketrack/caketrack/internal/schema"
)

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Manage orders",
}

var (
	orderDateFilter   string
	orderStatusFilter string
)

var ordersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List orders, optionally filtered by delivery date or status",
	Long: `List orders. --date and --status use the store's indexed lookups;
orders without a delivery date never appear in a --date listing.`,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		ctx := context.Background()
		var orders []*schema.Order

		switch {
		case orderDateFilter != "":
			orders, err = a.store.OrdersOn(ctx, orderDateFilter)
		case orderStatusFilter != "":
			orders, err = a.store.OrdersWithStatus(ctx, orderStatusFilter)
		default:
			var recs []schema.Record
			recs, err = a.store.GetAll(ctx, schema.KindOrders)
			for _, rec := range recs {
				orders = append(orders, rec.(*schema.Order))
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })

		for _, o := range orders {
			date := o.DeliveryDate
			if date == "" {
				date = "unscheduled"
			}
			fmt.Printf("%-36s %-10s %-12s %6.2fkg %-15s %8.2f %s\n",
				o.ID, o.Status, date, o.WeightKg, o.Flavor, o.Price, o.ClientName)
		}
	},
}

var (
	orderType       string
	orderWeight     float64
	orderFlavor     string
	orderFilling    string
	orderClient     string
	orderDate       string
	orderNote       string
	orderDecorated  bool
	orderDecorPrice float64
)

var ordersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Enter a new order",
	Long: `Enter an order. The price is computed here, at entry time, from
the catalog price and the decoration surcharge, and stored by value; later
catalog edits never reprice an existing order. Likewise --client captures
the client's current name and phone into the order.`,
	Run: func(cmd *cobra.Command, args []string) {
		if orderFlavor == "" || orderWeight <= 0 {
			fmt.Fprintf(os.Stderr, "Error: --flavor and a positive --weight are required\n")
			os.Exit(1)
		}
		validType := false
		for _, typ := range schema.OrderTypes() {
			if typ == orderType {
				validType = true
				break
			}
		}
		if !validType {
			fmt.Fprintf(os.Stderr, "Error: --type must be one of %v\n", schema.OrderTypes())
			os.Exit(1)
		}
		if orderDate != "" {
			if _, err := time.Parse(schema.DateLayout, orderDate); err != nil {
				fmt.Fprintf(os.Stderr, "Error: --date must be YYYY-MM-DD\n")
				os.Exit(1)
			}
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		ctx := context.Background()

		// Price from the catalog, captured now.
		var pricePerKg float64
		recs, err := a.store.GetAll(ctx, schema.KindFlavors)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		found := false
		for _, rec := range recs {
			f := rec.(*schema.Flavor)
			if f.Name == orderFlavor {
				pricePerKg = f.PricePerKg
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(os.Stderr, "Error: flavor %q is not in the catalog\n", orderFlavor)
			os.Exit(1)
		}

		o := &schema.Order{
			ID:           uuid.NewString(),
			Type:         orderType,
			WeightKg:     orderWeight,
			Flavor:       orderFlavor,
			Filling:      orderFilling,
			Price:        orderWeight * pricePerKg,
			DeliveryDate: orderDate,
			Status:       schema.StatusPending,
			CreatedAt:    time.Now().UTC(),
			Note:         orderNote,
		}
		if orderDecorated {
			o.Decorated = true
			o.DecorPrice = orderDecorPrice
			o.Price += orderDecorPrice
		}

		// Capture the client by value. The reference is weak, so a
		// missing client id is still stored.
		if orderClient != "" {
			o.ClientID = orderClient
			clientRecs, err := a.store.GetAll(ctx, schema.KindClients)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			for _, rec := range clientRecs {
				c := rec.(*schema.Client)
				if c.ID == orderClient {
					o.ClientName = c.Name
					o.ClientPhone = c.Phone
					break
				}
			}
		}

		if err := a.store.Put(ctx, schema.KindOrders, o); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created order %s (%.2f)\n", o.ID, o.Price)
	},
}

var orderNewStatus string

var ordersStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Set an order's status",
	Long: `Set an order's status. Any status may follow any other; the store
imposes no transition rules.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		valid := false
		for _, s := range schema.Statuses() {
			if s == orderNewStatus {
				valid = true
				break
			}
		}
		if !valid {
			fmt.Fprintf(os.Stderr, "Error: --to must be one of %v\n", schema.Statuses())
			os.Exit(1)
		}

		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		ctx := context.Background()
		recs, err := a.store.GetAll(ctx, schema.KindOrders)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		for _, rec := range recs {
			o := rec.(*schema.Order)
			if o.ID != args[0] {
				continue
			}
			o.Status = orderNewStatus
			if err := a.store.Put(ctx, schema.KindOrders, o); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Order %s is now %s\n", o.ID, o.Status)
			return
		}

		fmt.Fprintf(os.Stderr, "Error: order %s not found\n", args[0])
		os.Exit(1)
	},
}

var ordersRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove an order",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if err := a.store.Delete(context.Background(), schema.KindOrders, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed order %s\n", args[0])
	},
}

func init() {
	ordersListCmd.Flags().StringVar(&orderDateFilter, "date", "", "filter by delivery date (YYYY-MM-DD)")
	ordersListCmd.Flags().StringVar(&orderStatusFilter, "status", "", "filter by status")

	ordersAddCmd.Flags().StringVar(&orderType, "type", schema.OrderCustom, "order type: ready_made or custom")
	ordersAddCmd.Flags().Float64Var(&orderWeight, "weight", 0, "cake weight in kg")
	ordersAddCmd.Flags().StringVar(&orderFlavor, "flavor", "", "catalog flavor name (exact, case-sensitive)")
	ordersAddCmd.Flags().StringVar(&orderFilling, "filling", "", "filling variant")
	ordersAddCmd.Flags().StringVar(&orderClient, "client", "", "client id to reference")
	ordersAddCmd.Flags().StringVar(&orderDate, "date", "", "delivery date (YYYY-MM-DD)")
	ordersAddCmd.Flags().StringVar(&orderNote, "note", "", "free-text note")
	ordersAddCmd.Flags().BoolVar(&orderDecorated, "decorated", false, "include decoration")
	ordersAddCmd.Flags().Float64Var(&orderDecorPrice, "decor-price", 0, "decoration surcharge")

	ordersStatusCmd.Flags().StringVar(&orderNewStatus, "to", "", "new status")

	ordersCmd.AddCommand(ordersListCmd)
	ordersCmd.AddCommand(ordersAddCmd)
	ordersCmd.AddCommand(ordersStatusCmd)
	ordersCmd.AddCommand(ordersRmCmd)
	rootCmd.AddCommand(ordersCmd)
}
