package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/config"
	"github.com/spec-kit/grocery-storefront/internal/domain"
	"github.com/spec-kit/grocery-storefront/internal/pricing"
	"github.com/spec-kit/grocery-storefront/internal/storefront/cart"
	"github.com/spec-kit/grocery-storefront/internal/storefront/catalog"
	"github.com/spec-kit/grocery-storefront/internal/storefront/checkout"
	"github.com/spec-kit/grocery-storefront/internal/storefront/gateway"
	"github.com/spec-kit/grocery-storefront/internal/storefront/notify"
	"github.com/spec-kit/grocery-storefront/internal/storefront/session"
	"github.com/spec-kit/grocery-storefront/internal/storefront/tokenstore"
)

var errUsage = errors.New("invalid arguments")

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, sh *shell, args []string) error
}

var commands = []command{
	{"login", "-email addr -password pw", runLogin},
	{"signup", "-name n -email addr -password pw", runSignup},
	{"logout", "", runLogout},
	{"whoami", "", runWhoami},
	{"address", "-first f -last l -street s -city c [-state -zip -country -phone]", runAddress},
	{"products", "[-category slug] [-deals n]", runProducts},
	{"categories", "", runCategories},
	{"cart", "", runCart},
	{"add", "[-n qty] product...", runAdd},
	{"remove", "product...", runRemove},
	{"clear", "[product...]", runClear},
	{"checkout", "[-method cod|online]", runCheckout},
	{"confirm", "session-id", runConfirm},
	{"orders", "", runOrders},
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: storefront [-v] <command> [flags] [args]")
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.name, c.usage)
	}
	_ = tw.Flush()
}

// shell holds the client core for one CLI invocation.
type shell struct {
	gateway  *gateway.Client
	sessions *session.Store
	cart     *cart.Store
	catalog  *catalog.Browser
	checkout *checkout.Service
	logger   *zap.Logger
	cfg      config.StorefrontConfig

	mu       sync.Mutex
	out      io.Writer
	reported bool
}

func newShell(gw *gateway.Client, tokens tokenstore.Store, cfg config.StorefrontConfig, logger *zap.Logger, out io.Writer) *shell {
	sh := &shell{gateway: gw, logger: logger, cfg: cfg, out: out}
	notifier := notify.Func(sh.notice)

	sh.sessions = session.New(gw, tokens,
		session.WithNotifier(notifier),
		session.WithLogger(logger.Named("session")),
	)
	sh.cart = cart.New(gw, sh.sessions,
		cart.WithNotifier(notifier),
		cart.WithLogger(logger.Named("cart")),
		cart.WithSyncTimeout(cfg.SyncTimeout()),
		cart.WithFailureThreshold(cfg.SyncFailureThreshold),
	)
	sh.catalog = catalog.NewBrowser(gw, logger.Named("catalog"))
	sh.checkout = checkout.NewService(gw, sh.sessions, sh.cart,
		checkout.WithNotifier(notifier),
		checkout.WithLogger(logger.Named("checkout")),
		checkout.WithDefaultAddress(cfg.DefaultAddress),
	)
	return sh
}

// run restores the session, waits for the remote cart, then dispatches.
func (sh *shell) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage(sh.out)
		return errUsage
	}
	var cmd *command
	for i := range commands {
		if commands[i].name == args[0] {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		return fmt.Errorf("unknown command %q", args[0])
	}

	if err := sh.sessions.Init(ctx); err != nil {
		sh.logger.Warn("token store unreadable, continuing as guest", zap.Error(err))
	}
	if err := sh.cart.Flush(ctx); err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	return cmd.run(ctx, sh, args[1:])
}

// shutdown pushes pending cart changes and stops the sync worker.
func (sh *shell) shutdown(ctx context.Context) error {
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sh.cfg.SyncTimeout())
	defer cancel()
	err := sh.cart.Flush(flushCtx)
	sh.cart.Close()
	return err
}

func (sh *shell) notice(n notify.Notice) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if n.Level == notify.LevelError {
		sh.reported = true
	}
	fmt.Fprintf(sh.out, "[%s] %s\n", n.Level, n.Message)
}

// wasReported reports whether an error notice already reached the user.
func (sh *shell) wasReported() bool {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.reported
}

func (sh *shell) printf(format string, args ...any) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *shell) table(write func(w io.Writer)) {
	sh.mu.Lock()
	defer sh.mu.Unlock()
	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	write(tw)
	_ = tw.Flush()
}

func (sh *shell) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(sh.out)
	return fs
}

func runLogin(ctx context.Context, sh *shell, args []string) error {
	fs := sh.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("%w: -email and -password are required", errUsage)
	}
	return sh.sessions.Login(ctx, *email, *password)
}

func runSignup(ctx context.Context, sh *shell, args []string) error {
	fs := sh.flags("signup")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("%w: -name, -email and -password are required", errUsage)
	}
	return sh.sessions.Signup(ctx, *name, *email, *password)
}

func runLogout(_ context.Context, sh *shell, _ []string) error {
	if !sh.sessions.IsAuthenticated() {
		sh.printf("not logged in\n")
		return nil
	}
	sh.sessions.Logout(true)
	return nil
}

func runWhoami(_ context.Context, sh *shell, _ []string) error {
	user := sh.sessions.User()
	if user == nil {
		sh.printf("guest\n")
		return nil
	}
	sh.printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)
	if user.Address != nil {
		sh.printf("ships to: %s\n", user.Address.OneLine())
	}
	return nil
}

func runAddress(ctx context.Context, sh *shell, args []string) error {
	var addr domain.Address
	fs := sh.flags("address")
	fs.StringVar(&addr.FirstName, "first", "", "first name")
	fs.StringVar(&addr.LastName, "last", "", "last name")
	fs.StringVar(&addr.Email, "email", "", "contact email")
	fs.StringVar(&addr.Street, "street", "", "street")
	fs.StringVar(&addr.City, "city", "", "city")
	fs.StringVar(&addr.State, "state", "", "state")
	fs.StringVar(&addr.ZipCode, "zip", "", "zip code")
	fs.StringVar(&addr.Country, "country", "", "country")
	fs.StringVar(&addr.Phone, "phone", "", "phone")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return sh.sessions.UpdateAddress(ctx, addr)
}

func runProducts(ctx context.Context, sh *shell, args []string) error {
	fs := sh.flags("products")
	slug := fs.String("category", "", "category slug, e.g. bakery-breads")
	deals := fs.Int("deals", 0, "show the n biggest discounts")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var (
		products []domain.Product
		err      error
	)
	switch {
	case *slug != "":
		var category domain.Category
		category, products, err = sh.catalog.Category(ctx, *slug)
		if err == nil {
			sh.printf("%s\n", category.Name)
		}
	case *deals > 0:
		products, err = sh.catalog.Deals(ctx, *deals)
	default:
		products, err = sh.catalog.Products(ctx)
	}
	if err != nil {
		return err
	}
	if len(products) == 0 {
		sh.printf("no products\n")
		return nil
	}

	sh.table(func(w io.Writer) {
		fmt.Fprintln(w, "NAME\tCATEGORY\tPRICE\tWAS\tOFF\tIN CART")
		for _, p := range products {
			was, off := "", ""
			if pct := pricing.DiscountPercent(p.OldPrice, p.Price); pct > 0 {
				was = money(p.OldPrice)
				off = fmt.Sprintf("%d%%", pct)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", p.Name, p.Category, money(p.Price), was, off, sh.cart.Quantity(p.CartKey()))
		}
	})
	return nil
}

func runCategories(ctx context.Context, sh *shell, _ []string) error {
	categories, err := sh.gateway.ListCategories(ctx)
	if err != nil {
		return err
	}
	sh.table(func(w io.Writer) {
		fmt.Fprintln(w, "NAME\tSLUG")
		for _, c := range categories {
			fmt.Fprintf(w, "%s\t%s\n", c.Name, c.Slug())
		}
	})
	return nil
}

func runCart(ctx context.Context, sh *shell, _ []string) error {
	if sh.cart.Count() == 0 {
		sh.printf("cart is empty\n")
		return nil
	}
	products, err := sh.catalog.Products(ctx)
	if err != nil {
		return err
	}
	quote := sh.checkout.Quote(products)

	priced := make(map[string]bool, len(quote.Lines))
	for _, l := range quote.Lines {
		priced[l.Product.CartKey()] = true
	}
	var unavailable []string
	for key := range sh.cart.Items() {
		if !priced[key] {
			unavailable = append(unavailable, key)
		}
	}
	sort.Strings(unavailable)

	sh.table(func(w io.Writer) {
		fmt.Fprintln(w, "ITEM\tQTY\tPRICE\tTOTAL")
		for _, l := range quote.Lines {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", l.Product.Name, l.Quantity, money(l.Product.Price), money(l.Total()))
		}
		fmt.Fprintf(w, "\t\tsubtotal\t%s\n", money(quote.Subtotal))
		fmt.Fprintf(w, "\t\ttax (2%%)\t%s\n", money(quote.Tax))
		fmt.Fprintf(w, "\t\ttotal\t%s\n", money(quote.Total))
	})
	if len(unavailable) > 0 {
		sh.printf("not available: %s\n", strings.Join(unavailable, ", "))
	}
	return nil
}

func runAdd(ctx context.Context, sh *shell, args []string) error {
	fs := sh.flags("add")
	qty := fs.Int("n", 1, "quantity to add")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 || *qty < 1 {
		return fmt.Errorf("%w: add [-n qty] product...", errUsage)
	}

	products, err := sh.catalog.Products(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, fs.NArg())
	for _, name := range fs.Args() {
		p, ok := findProduct(products, name)
		if !ok {
			return fmt.Errorf("no active product named %q", name)
		}
		keys = append(keys, p.CartKey())
	}

	for _, key := range keys {
		for i := 0; i < *qty; i++ {
			sh.cart.Add(key)
		}
		sh.printf("%s: %d in cart\n", key, sh.cart.Quantity(key))
	}
	if !sh.sessions.IsAuthenticated() {
		sh.printf("guest carts are not kept between runs; login to save it\n")
	}
	return nil
}

func runRemove(_ context.Context, sh *shell, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: remove product...", errUsage)
	}
	for _, name := range args {
		key, ok := sh.cartKey(name)
		if !ok {
			return fmt.Errorf("%q is not in the cart", name)
		}
		sh.cart.Remove(key)
		sh.printf("%s: %d in cart\n", key, sh.cart.Quantity(key))
	}
	return nil
}

func runClear(_ context.Context, sh *shell, args []string) error {
	if len(args) == 0 {
		for key := range sh.cart.Items() {
			sh.cart.Clear(key)
		}
		sh.printf("cart cleared\n")
		return nil
	}
	for _, name := range args {
		key, ok := sh.cartKey(name)
		if !ok {
			return fmt.Errorf("%q is not in the cart", name)
		}
		sh.cart.Clear(key)
		sh.printf("%s removed\n", key)
	}
	return nil
}

func runCheckout(ctx context.Context, sh *shell, args []string) error {
	fs := sh.flags("checkout")
	method := fs.String("method", string(checkout.MethodCOD), "cod or online")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	products, err := sh.catalog.Products(ctx)
	if err != nil {
		return err
	}
	res, err := sh.checkout.PlaceOrder(ctx, products, checkout.Method(strings.ToLower(*method)))
	if err != nil {
		return err
	}
	if res.RedirectURL != "" {
		sh.printf("complete payment at:\n  %s\nthen run: storefront confirm %s\n", res.RedirectURL, res.SessionID)
		return nil
	}
	sh.printOrder(res.Order)
	return nil
}

func runConfirm(ctx context.Context, sh *shell, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: confirm session-id", errUsage)
	}
	order, err := sh.checkout.ConfirmPayment(ctx, args[0])
	if err != nil {
		return err
	}
	sh.printOrder(order)
	return nil
}

func runOrders(ctx context.Context, sh *shell, _ []string) error {
	token := sh.sessions.Token()
	if token == "" {
		sh.notice(notify.Notice{Level: notify.LevelError, Message: "Please login first"})
		return session.ErrNotAuthenticated
	}
	orders, err := sh.gateway.ListOrders(ctx, token)
	if err != nil {
		return errors.New(gateway.MessageOf(err, "Failed to load orders"))
	}
	if len(orders) == 0 {
		sh.printf("no orders yet\n")
		return nil
	}
	sh.table(func(w io.Writer) {
		fmt.Fprintln(w, "ORDER\tDATE\tSTATUS\tPAYMENT\tITEMS\tAMOUNT")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				o.ID, o.CreatedAt.Format("2006-01-02"), o.Status, paymentLabel(o), len(o.Items), money(o.Amount))
		}
	})
	return nil
}

func (sh *shell) printOrder(o *domain.Order) {
	if o == nil {
		return
	}
	sh.printf("order %s: %s, %s, %s\n", o.ID, o.Status, paymentLabel(*o), money(o.Amount))
}

// cartKey resolves name to an existing cart entry, ignoring case.
func (sh *shell) cartKey(name string) (string, bool) {
	for key := range sh.cart.Items() {
		if strings.EqualFold(key, name) {
			return key, true
		}
	}
	return "", false
}

func findProduct(products []domain.Product, name string) (domain.Product, bool) {
	for _, p := range products {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return domain.Product{}, false
}

func paymentLabel(o domain.Order) string {
	if o.Paid {
		return string(o.PaymentMethod) + " (paid)"
	}
	return string(o.PaymentMethod) + " (pending)"
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
