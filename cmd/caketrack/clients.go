package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/caketrack/caketrack/internal/schema"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Manage the client book",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all clients",
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		recs, err := a.store.GetAll(context.Background(), schema.KindClients)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		clients := make([]*schema.Client, 0, len(recs))
		for _, rec := range recs {
			clients = append(clients, rec.(*schema.Client))
		}
		sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })

		for _, c := range clients {
			fmt.Printf("%-36s %-20s %s\n", c.ID, c.Name, c.Phone)
		}
	},
}

var clientPhone string

var clientsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a client",
	Long: `Add a client with a freshly generated id. The id is generated
here, by the caller; the store never generates keys.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		c := &schema.Client{
			ID:    uuid.NewString(),
			Name:  args[0],
			Phone: clientPhone,
		}
		if err := a.store.Put(context.Background(), schema.KindClients, c); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added client %s (%s)\n", c.Name, c.ID)
	},
}

var clientsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a client",
	Long: `Remove a client by id. Orders that reference the client keep
their captured name and phone; the stored client id simply dangles, which
is a legal state.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, err := openApp()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer a.Close()

		if err := a.store.Delete(context.Background(), schema.KindClients, args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed client %s\n", args[0])
	},
}

func init() {
	clientsAddCmd.Flags().StringVar(&clientPhone, "phone", "", "contact number")
	clientsCmd.AddCommand(clientsListCmd)
	clientsCmd.AddCommand(clientsAddCmd)
	clientsCmd.AddCommand(clientsRmCmd)
	rootCmd.AddCommand(clientsCmd)
}
