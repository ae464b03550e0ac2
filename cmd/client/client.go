package main

import (
	"fmt"
	stdnet "net"
	"os"
	"strconv"
	"strings"
	"time"

	"fenrir/internal/common"
	fenrirNet "fenrir/internal/net"

	"github.com/spf13/cobra"
)

func main() {
	var (
		serverAddr string
		owner      string
	)

	root := &cobra.Command{
		Use:   "fenrir-client",
		Short: "Send commands to a fenrir matching engine and watch reports",
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", "127.0.0.1:9001", "address of the exchange server")
	root.PersistentFlags().StringVar(&owner, "owner", "", "owner tag attached to every order placed")
	_ = root.MarkPersistentFlagRequired("owner")

	root.AddCommand(placeCommand(&serverAddr, &owner))
	root.AddCommand(cancelCommand(&serverAddr, &owner))
	root.AddCommand(modifyCommand(&serverAddr, &owner))
	root.AddCommand(summaryCommand(&serverAddr, &owner))
	root.AddCommand(logCommand(&serverAddr, &owner))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dial(serverAddr string) (stdnet.Conn, error) {
	return stdnet.Dial("tcp", serverAddr)
}

func placeCommand(serverAddr, owner *string) *cobra.Command {
	var (
		ticker   string
		sideStr  string
		typeStr  string
		price    string
		qtyList  string
		tradeID  string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place one or more limit/market orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := dial(*serverAddr)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", *serverAddr, err)
			}
			defer conn.Close()

			go printReports(conn)

			side := common.Buy
			if strings.EqualFold(sideStr, "sell") {
				side = common.Sell
			}
			orderType := common.LimitOrder
			if strings.EqualFold(typeStr, "market") {
				orderType = common.MarketOrder
			}

			for _, qty := range parseQuantities(qtyList) {
				msg := fenrirNet.NewOrderMessage{
					BaseMessage: fenrirNet.BaseMessage{TypeOf: fenrirNet.NewOrder},
					AssetType:   common.Equities,
					OrderType:   orderType,
					Side:        side,
					Ticker:      ticker,
					Quantity:    qty,
					TradeID:     tradeID,
					Owner:       *owner,
				}
				if orderType == common.LimitOrder {
					msg.Price = price
				}
				if _, err := conn.Write(msg.Serialize()); err != nil {
					return fmt.Errorf("send order (qty %s): %w", qty, err)
				}
				fmt.Printf("-> sent %s %s %s @ %s\n", strings.ToUpper(sideStr), ticker, qty, price)
				time.Sleep(interval)
			}

			fmt.Println("listening for reports... (ctrl+c to exit)")
			select {}
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "AAPL", "ticker symbol")
	cmd.Flags().StringVar(&sideStr, "side", "buy", "buy or sell")
	cmd.Flags().StringVar(&typeStr, "type", "limit", "limit or market")
	cmd.Flags().StringVar(&price, "price", "100.00", "limit price (ignored for market orders)")
	cmd.Flags().StringVar(&qtyList, "qty", "10", "quantity, or comma-separated list (e.g. 10,20,50)")
	cmd.Flags().StringVar(&tradeID, "trade-id", "", "client trade id (generated if empty)")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Millisecond, "pause between successive orders")
	return cmd
}

func cancelCommand(serverAddr, owner *string) *cobra.Command {
	var (
		orderID uint64
		sideStr string
	)

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel a resting order",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := dial(*serverAddr)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", *serverAddr, err)
			}
			defer conn.Close()

			go printReports(conn)

			side := common.Buy
			if strings.EqualFold(sideStr, "sell") {
				side = common.Sell
			}

			msg := fenrirNet.CancelOrderMessage{
				BaseMessage: fenrirNet.BaseMessage{TypeOf: fenrirNet.CancelOrder},
				AssetType:   common.Equities,
				Side:        side,
				OrderID:     orderID,
			}
			if _, err := conn.Write(msg.Serialize()); err != nil {
				return fmt.Errorf("send cancel: %w", err)
			}
			fmt.Printf("-> sent cancel for order %d\n", orderID)

			fmt.Println("listening for reports... (ctrl+c to exit)")
			select {}
		},
	}
	cmd.Flags().Uint64Var(&orderID, "order-id", 0, "order id to cancel")
	cmd.Flags().StringVar(&sideStr, "side", "buy", "side the order rests on: buy or sell")
	_ = cmd.MarkFlagRequired("order-id")
	return cmd
}

func modifyCommand(serverAddr, owner *string) *cobra.Command {
	var (
		orderID uint64
		sideStr string
		price   string
		qty     string
	)

	cmd := &cobra.Command{
		Use:   "modify",
		Short: "Reprice or resize a resting order",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := dial(*serverAddr)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", *serverAddr, err)
			}
			defer conn.Close()

			go printReports(conn)

			side := common.Buy
			if strings.EqualFold(sideStr, "sell") {
				side = common.Sell
			}

			msg := fenrirNet.ModifyOrderMessage{
				BaseMessage: fenrirNet.BaseMessage{TypeOf: fenrirNet.ModifyOrder},
				AssetType:   common.Equities,
				Side:        side,
				OrderID:     orderID,
				Price:       price,
				Quantity:    qty,
			}
			if _, err := conn.Write(msg.Serialize()); err != nil {
				return fmt.Errorf("send modify: %w", err)
			}
			fmt.Printf("-> sent modify for order %d: price=%s qty=%s\n", orderID, price, qty)

			fmt.Println("listening for reports... (ctrl+c to exit)")
			select {}
		},
	}
	cmd.Flags().Uint64Var(&orderID, "order-id", 0, "order id to modify")
	cmd.Flags().StringVar(&sideStr, "side", "buy", "side the order rests on: buy or sell")
	cmd.Flags().StringVar(&price, "price", "", "new price")
	cmd.Flags().StringVar(&qty, "qty", "", "new quantity")
	_ = cmd.MarkFlagRequired("order-id")
	return cmd
}

func summaryCommand(serverAddr, owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Ask the server to log best bid/ask and resting volume (no reply is sent back)",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := dial(*serverAddr)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", *serverAddr, err)
			}
			defer conn.Close()

			go printReports(conn)

			msg := fenrirNet.QuerySummaryMessage{
				BaseMessage: fenrirNet.BaseMessage{TypeOf: fenrirNet.QuerySummary},
				AssetType:   common.Equities,
			}
			if _, err := conn.Write(msg.Serialize()); err != nil {
				return fmt.Errorf("send summary query: %w", err)
			}
			fmt.Println("-> sent summary query")

			time.Sleep(500 * time.Millisecond)
			return nil
		},
	}
}

func logCommand(serverAddr, owner *string) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Send a log request; the server logs its receipt but does not dump the book",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := dial(*serverAddr)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", *serverAddr, err)
			}
			defer conn.Close()

			if _, err := conn.Write(fenrirNet.SerializeLogBook()); err != nil {
				return fmt.Errorf("send log request: %w", err)
			}
			fmt.Println("-> sent log request")
			return nil
		},
	}
}

// parseQuantities splits a comma-separated string into decimal-string
// quantities, skipping anything that doesn't parse as a number.
func parseQuantities(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if _, err := strconv.ParseFloat(p, 64); err != nil {
			fmt.Fprintf(os.Stderr, "warning: invalid quantity %q, skipping\n", p)
			continue
		}
		result = append(result, p)
	}
	return result
}

// printReports reads Report messages off conn until it closes.
func printReports(conn stdnet.Conn) {
	buffer := make([]byte, 4*1024)
	for {
		n, err := conn.Read(buffer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connection closed: %v\n", err)
			return
		}

		report, err := fenrirNet.ParseReport(buffer[:n])
		if err != nil {
			fmt.Fprintf(os.Stderr, "malformed report: %v\n", err)
			continue
		}

		if report.MessageType == fenrirNet.ErrorReport {
			fmt.Printf("\n[ERROR] %s\n", report.Err)
			continue
		}

		sideStr := "BUY"
		if report.Side == common.Sell {
			sideStr = "SELL"
		}
		fmt.Printf("\n[FILL] %s order=%d qty=%s price=%s vs=%s trade=%s\n",
			sideStr, report.OrderID, report.Quantity, report.Price, report.Counterparty, report.TradeID)
	}
}
