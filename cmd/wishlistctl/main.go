// wishlistctl drives the storefront engine from a terminal.
// Each command performs a single operation against the shared state backend,
// making it composable for scripts.
//
// Commands:
//
//	wishlistctl list [-client ID] [-file PATH | -redis URL]
//	wishlistctl add -handle H [-variant N]
//	wishlistctl remove -handle H
//	wishlistctl toggle -handle H [-variant N]
//	wishlistctl move -handle H [-variant N]
//	wishlistctl render
//	wishlistctl watch
//	wishlistctl recent [-track H]
//	wishlistctl resolve -handle H [-select Red,M] [-position N -value V]
//	wishlistctl shipping -zip Z -country C
//
// Examples:
//
//	wishlistctl add -store https://shop.example.com -handle classic-tee -variant 101
//	wishlistctl watch -redis redis://localhost:6379/0 -client $ID
//	wishlistctl resolve -store https://shop.example.com -handle classic-tee -position 1 -value Blue
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront-engine/internal/model"
	"storefront-engine/internal/recent"
	"storefront-engine/internal/session"
	"storefront-engine/internal/storage"
	"storefront-engine/internal/storeapi"
	"storefront-engine/internal/variant"
	"storefront-engine/internal/wishlist"
)

// Global flags (apply to all commands)
var (
	storeURL    string
	clientID    string
	filePath    string
	redisURL    string
	namespace   string
	fingerprint bool
	quiet       bool
	noColor     bool
	verbose     bool
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen, colorYellow = "", "", "", ""
	colorCyan, colorGray, colorBold = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "list":
		runList(args)
	case "add":
		runAdd(args)
	case "remove":
		runRemove(args)
	case "toggle":
		runToggle(args)
	case "move":
		runMove(args)
	case "render":
		runRender(args)
	case "watch":
		runWatch(args)
	case "recent":
		runRecent(args)
	case "resolve":
		runResolve(args)
	case "shipping":
		runShipping(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `wishlistctl - storefront engine command line

Usage:
  wishlistctl <command> [options]

Commands:
  list      Show saved wishlist entries
  add       Save a product (or update its variant)
  remove    Remove a saved product
  toggle    Save a product, or remove it if already saved
  move      Add a saved product to the cart and remove it on success
  render    Print the rendered wishlist markup
  watch     Re-render the wishlist whenever it changes
  recent    Show recently viewed products, optionally recording a view
  resolve   Resolve chosen options to a variant
  shipping  Estimate shipping rates for the current cart

State is read from -file (default .storefront.json) or -redis when set.
Run 'wishlistctl <command> -h' for command options.

Environment:
  STORE_URL   Default for -store
  REDIS_URL   Default for -redis
  NO_COLOR    Disable colored output
`)
}

// commonFlags registers the flags shared by every command.
func commonFlags(fs *flag.FlagSet) {
	fs.StringVar(&storeURL, "store", os.Getenv("STORE_URL"), "Storefront base URL")
	fs.StringVar(&clientID, "client", "cli", "Client id whose state is used")
	fs.StringVar(&filePath, "file", ".storefront.json", "State file (ignored when -redis is set)")
	fs.StringVar(&redisURL, "redis", os.Getenv("REDIS_URL"), "Redis URL for shared state")
	fs.StringVar(&namespace, "namespace", storage.DefaultRedisNamespace, "Redis key namespace")
	fs.BoolVar(&fingerprint, "fingerprint", false, "Use the Chrome TLS fingerprint transport")
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output handles or ids")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - debug logging and full JSON output")
}

func parse(fs *flag.FlagSet, usage string, args []string) {
	commonFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wishlistctl %s [options]\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if noColor {
		disableColors()
	}
	if err := session.ValidateClientID(clientID); err != nil {
		fatal("Invalid -client: %v", err)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	parse(fs, "list", args)

	env := openEnv(false)
	defer env.close()

	entries := env.wishlist(nil).Store.Items(context.Background())
	if quiet {
		for _, e := range entries {
			fmt.Println(e.Handle)
		}
		return
	}
	if len(entries) == 0 {
		printInfo("Wishlist is empty")
		return
	}
	printSuccess("%d saved", len(entries))
	for _, e := range entries {
		if e.VariantID != nil {
			fmt.Printf("  %s%s%s %svariant %d%s\n", colorBold, e.Handle, colorReset, colorGray, *e.VariantID, colorReset)
		} else {
			fmt.Printf("  %s%s%s\n", colorBold, e.Handle, colorReset)
		}
	}
}

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	var handle string
	var variantID int64
	fs.StringVar(&handle, "handle", "", "Product handle (required)")
	fs.Int64Var(&variantID, "variant", 0, "Variant id (0 keeps the stored one)")
	parse(fs, "add -handle H [-variant N]", args)
	requireFlag(fs, handle)

	env := openEnv(false)
	defer env.close()

	if err := env.wishlist(nil).Store.Upsert(context.Background(), handle, wishlist.VariantPtr(variantID)); err != nil {
		fatal("Failed to save %s: %v", handle, err)
	}
	printSuccess("Saved %s", handle)
}

func runRemove(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	var handle string
	fs.StringVar(&handle, "handle", "", "Product handle (required)")
	parse(fs, "remove -handle H", args)
	requireFlag(fs, handle)

	env := openEnv(false)
	defer env.close()

	if err := env.wishlist(nil).Store.Remove(context.Background(), handle); err != nil {
		fatal("Failed to remove %s: %v", handle, err)
	}
	printSuccess("Removed %s", handle)
}

func runToggle(args []string) {
	fs := flag.NewFlagSet("toggle", flag.ExitOnError)
	var handle string
	var variantID int64
	fs.StringVar(&handle, "handle", "", "Product handle (required)")
	fs.Int64Var(&variantID, "variant", 0, "Variant id used when saving")
	parse(fs, "toggle -handle H [-variant N]", args)
	requireFlag(fs, handle)

	env := openEnv(false)
	defer env.close()

	saved, err := env.wishlist(nil).Store.Toggle(context.Background(), handle, wishlist.VariantPtr(variantID))
	if err != nil {
		fatal("Failed to toggle %s: %v", handle, err)
	}
	if quiet {
		fmt.Println(saved)
		return
	}
	if saved {
		printSuccess("Saved %s", handle)
	} else {
		printSuccess("Removed %s", handle)
	}
}

func runMove(args []string) {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	var handle string
	var variantID int64
	fs.StringVar(&handle, "handle", "", "Product handle (required)")
	fs.Int64Var(&variantID, "variant", 0, "Variant id (0 uses the stored one)")
	parse(fs, "move -handle H [-variant N]", args)
	requireFlag(fs, handle)

	env := openEnv(true)
	defer env.close()

	changed, err := env.wishlist(nil).Renderer.Dispatch(context.Background(), wishlist.Action{
		Role:      wishlist.RoleMoveToCart,
		Handle:    handle,
		VariantID: variantID,
	})
	if err != nil {
		fatal("Failed to move %s: %v", handle, err)
	}
	if !changed {
		printWarning("%s was not added to the cart; wishlist unchanged", handle)
		os.Exit(1)
	}
	printSuccess("Moved %s to the cart", handle)
}

func runRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	parse(fs, "render", args)

	env := openEnv(true)
	defer env.close()

	view, err := env.wishlist(wishlist.NewWriterSurface(os.Stdout)).Renderer.Render(context.Background())
	if err != nil {
		fatal("Failed to render: %v", err)
	}
	if verbose {
		printJSON(view)
	}
}

func runWatch(args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	parse(fs, "watch", args)

	env := openEnv(true)
	defer env.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := env.wishlist(wishlist.NewWriterSurface(os.Stdout))
	if _, err := w.Renderer.Render(ctx); err != nil {
		fatal("Failed to render: %v", err)
	}
	printInfo("Watching client %s (Ctrl-C to stop)", clientID)
	if err := w.Watch(ctx); err != nil {
		fatal("Watch failed: %v", err)
	}
}

func runRecent(args []string) {
	fs := flag.NewFlagSet("recent", flag.ExitOnError)
	var track string
	fs.StringVar(&track, "track", "", "Record a view of this handle first")
	parse(fs, "recent [-track H]", args)

	env := openEnv(false)
	defer env.close()

	ctx := context.Background()
	list := recent.New(storage.WithPrefix(env.repo, storage.ClientPrefix(clientID)), env.logger)
	if track != "" {
		if _, err := list.Track(ctx, track); err != nil {
			fatal("Failed to record view: %v", err)
		}
	}

	view, err := list.Render(ctx)
	if err != nil {
		fatal("Failed to render: %v", err)
	}
	if verbose {
		printJSON(view)
		return
	}
	if quiet {
		for _, item := range view.Items {
			fmt.Println(item.Handle)
		}
		return
	}
	if view.Empty {
		printInfo("%s", recent.EmptyMessage)
		return
	}
	for _, item := range view.Items {
		fmt.Printf("  %s%s%s %s%s%s\n", colorBold, item.Title, colorReset, colorGray, item.URL, colorReset)
	}
}

func runResolve(args []string) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	var handle, selection, value string
	var position int
	fs.StringVar(&handle, "handle", "", "Product handle (required)")
	fs.StringVar(&selection, "select", "", "Comma-separated value per option axis; empty leaves an axis unset")
	fs.IntVar(&position, "position", 0, "1-based option axis to change")
	fs.StringVar(&value, "value", "", "Value applied at -position")
	parse(fs, "resolve -handle H [-select A,B] [-position N -value V]", args)
	requireFlag(fs, handle)

	env := openEnv(true)
	defer env.close()

	product, err := env.client.Product(context.Background(), handle)
	if err != nil {
		fatal("Failed to fetch %s: %v", handle, err)
	}

	page := variant.NewPage(product)
	if selection != "" {
		page = page.WithSelection(variant.Selection(strings.Split(selection, ",")))
	}

	var result variant.Result
	if position > 0 {
		if axes := variant.NewResolver(product).AxisCount(); position > axes {
			fatal("-position %d out of range (product has %d options)", position, axes)
		}
		result = page.OnOptionChange(position, value)
	} else {
		result = page.Refresh()
	}

	if quiet {
		fmt.Println(result.VariantID)
		return
	}
	if verbose {
		printJSON(result)
		return
	}

	fmt.Printf("  Selection: %s%s%s\n", colorCyan, strings.Join(result.Selection, " / "), colorReset)
	for _, f := range result.Forced {
		printWarning("Option %d forced from %s to %s", f.Position, f.From, f.To)
	}
	if result.Matched {
		printSuccess("Variant %d (%s) %s", result.Variant.ID, result.Variant.Title, model.FormatCents(result.Variant.Price))
	} else {
		printWarning("No variant matches; keeping variant %d", result.VariantID)
	}
}

func runShipping(args []string) {
	fs := flag.NewFlagSet("shipping", flag.ExitOnError)
	var zip, country string
	fs.StringVar(&zip, "zip", "", "Destination postal code (required)")
	fs.StringVar(&country, "country", "", "Destination country (required)")
	parse(fs, "shipping -zip Z -country C", args)
	requireFlag(fs, zip, country)

	env := openEnv(true)
	defer env.close()

	rates, err := env.client.ShippingRates(context.Background(), zip, country)
	if err != nil {
		env.logger.Debug("shipping rates failed", slog.String("error", err.Error()))
		fatal("Unable to fetch rates.")
	}
	if len(rates) == 0 {
		printInfo("No rates available.")
		return
	}
	for _, r := range rates {
		fmt.Printf("  %s%s%s %s\n", colorBold, r.Name, colorReset, model.FormatCents(r.Cents))
	}
}

// =============================================================================
// ENGINE SETUP
// =============================================================================

type env struct {
	repo   storage.Store
	client *storeapi.Client
	engine *wishlist.Engine
	logger *slog.Logger
}

// openEnv opens the state backend and, when needStore is set or a store URL
// is known, the storefront client.
func openEnv(needStore bool) *env {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo storage.Store
	var err error
	if redisURL != "" {
		repo, err = storage.OpenRedis(ctx, redisURL, namespace)
	} else {
		repo, err = storage.OpenFile(filePath)
	}
	if err != nil {
		fatal("Failed to open state: %v", err)
	}

	e := &env{repo: repo, logger: logger}

	if storeURL == "" {
		if needStore {
			repo.Close()
			fatal("-store (or STORE_URL) is required for this command")
		}
		e.engine = wishlist.NewEngine(repo, nil, wishlist.Options{Logger: logger})
		return e
	}

	client, err := storeapi.New(storeapi.Config{
		StoreURL:    storeURL,
		Timeout:     30 * time.Second,
		Fingerprint: fingerprint,
	})
	if err != nil {
		repo.Close()
		fatal("Invalid store URL: %v", err)
	}
	e.client = client
	e.engine = wishlist.NewEngine(repo, client, wishlist.Options{Logger: logger})
	return e
}

func (e *env) wishlist(surface wishlist.Surface) *wishlist.Wishlist {
	return e.engine.ForClient(clientID, surface)
}

func (e *env) close() {
	if err := e.repo.Close(); err != nil {
		e.logger.Warn("closing state", slog.String("error", err.Error()))
	}
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func requireFlag(fs *flag.FlagSet, values ...string) {
	for _, v := range values {
		if v == "" {
			fs.Usage()
			os.Exit(1)
		}
	}
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal("Encoding output: %v", err)
	}
	fmt.Println(string(data))
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
	}
}

func printWarning(format string, args ...interface{}) {
	fmt.Printf("%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("%s→ %s%s\n", colorGray, fmt.Sprintf(format, args...), colorReset)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
