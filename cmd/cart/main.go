// Command cart is a terminal shopper for the Home Flavors ordering API. The
// cart survives between runs in a local JSON file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/homeflavors/internal/client"
	"github.com/Zhima-Mochi/homeflavors/internal/domain/cart"
	"github.com/Zhima-Mochi/homeflavors/internal/infrastructure/cartfile"
)

const defaultAPIURL = "http://localhost:8080"

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "cart:", err)
		}
		os.Exit(1)
	}
}

type cli struct {
	api   *client.Client
	store *cart.Store
	out   io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("cart", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiURL := fs.String("api", envOr("HOMEFLAVORS_API_URL", defaultAPIURL), "ordering API base URL")
	cartPath := fs.String("cart", os.Getenv("HOMEFLAVORS_CART_FILE"), "cart file (default ~/.homeflavors/cart.json)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: cart [-api url] [-cart file] <menu|add|set|remove|show|clear|checkout> [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	path := *cartPath
	if path == "" {
		p, err := cartfile.DefaultPath()
		if err != nil {
			return fmt.Errorf("cart file: %w", err)
		}
		path = p
	}

	api, err := client.New(*apiURL, nil)
	if err != nil {
		return err
	}
	store, err := cart.Open(ctx, cartfile.New(path))
	if err != nil {
		return err
	}
	c := &cli{api: api, store: store, out: stdout}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "menu":
		return c.menu(ctx)
	case "add":
		if len(rest) != 1 {
			return usage(stderr, "add <item-id>")
		}
		return c.add(ctx, rest[0])
	case "set":
		if len(rest) != 2 {
			return usage(stderr, "set <item-id> <quantity>")
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("quantity %q is not a number", rest[1])
		}
		if err := c.store.SetQuantity(ctx, rest[0], qty); err != nil {
			return err
		}
		return c.show()
	case "remove":
		if len(rest) != 1 {
			return usage(stderr, "remove <item-id>")
		}
		if err := c.store.Remove(ctx, rest[0]); err != nil {
			return err
		}
		return c.show()
	case "show":
		return c.show()
	case "clear":
		if err := c.store.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Cart cleared.")
		return nil
	case "checkout":
		return c.checkout(ctx, rest, stderr)
	default:
		fs.Usage()
		return errUsage
	}
}

func (c *cli) menu(ctx context.Context) error {
	categories, err := c.api.Menu(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, cat := range categories {
		fmt.Fprintf(tw, "%s\n", cat.Category)
		for _, it := range cat.Items {
			note := ""
			if !it.IsAvailable() {
				note = "(unavailable)"
			}
			fmt.Fprintf(tw, "  %s\t%s\t$%s\t%s\n", it.ID, it.Name, it.Price.StringFixed(2), note)
		}
	}
	return tw.Flush()
}

func (c *cli) add(ctx context.Context, id string) error {
	categories, err := c.api.Menu(ctx)
	if err != nil {
		return err
	}
	for _, cat := range categories {
		for _, it := range cat.Items {
			if it.ID != id {
				continue
			}
			if !it.IsAvailable() {
				return fmt.Errorf("%s is currently unavailable", it.Name)
			}
			if err := c.store.Add(ctx, cart.Item{ID: it.ID, Name: it.Name, Price: it.Price, Image: it.Image}); err != nil {
				return err
			}
			return c.show()
		}
	}
	return fmt.Errorf("no menu item with id %q", id)
}

func (c *cli) show() error {
	items := c.store.Items()
	if len(items) == 0 {
		fmt.Fprintln(c.out, "Cart is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, it := range items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		fmt.Fprintf(tw, "%s\t%dx %s\t$%s\n", it.ID, it.Quantity, it.Name, line.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t%d items\t$%s\n", c.store.TotalItems(), c.store.TotalPrice().StringFixed(2))
	return tw.Flush()
}

func (c *cli) checkout(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "customer name")
	phone := fs.String("phone", "", "customer phone in E.164 form")
	source := fs.String("source", "", "payment source token")
	key := fs.String("key", "", "idempotency key to reuse on retry")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	items := c.store.Items()
	if len(items) == 0 {
		return errors.New("cart is empty")
	}
	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*phone) == "" || strings.TrimSpace(*source) == "" {
		return usage(stderr, "checkout -name <name> -phone <+15551234567> -source <token> [-key <key>]")
	}

	receipt, err := c.api.SubmitOrder(ctx, *source, items, client.CustomerDetails{Name: *name, Phone: *phone}, *key)
	if err != nil {
		return err
	}
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("order %s placed but cart not cleared: %w", receipt.OrderNumber, err)
	}

	fmt.Fprintf(c.out, "Order %s placed. Payment %s, total $%s.\n",
		receipt.OrderNumber, receipt.PaymentID, receipt.Total.StringFixed(2))
	if receipt.NotificationStatus != "sent" {
		fmt.Fprintln(c.out, "The kitchen was not notified automatically; please call to confirm.")
	}
	return nil
}

func usage(w io.Writer, synopsis string) error {
	fmt.Fprintln(w, "usage: cart "+synopsis)
	return errUsage
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
