// Command likes is a terminal client for the marketplace favorites: it signs
// in, keeps an optimistic like cache in front of the remote store, and queues
// toggles while the server is unreachable.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"

	"github.com/oggyb/motorplace/internal/cache"
	"github.com/oggyb/motorplace/internal/config"
	"github.com/oggyb/motorplace/internal/likes"
	"github.com/oggyb/motorplace/internal/logger"
	"github.com/oggyb/motorplace/internal/remote"
)

const probeTimeout = 2 * time.Second

func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)

	cliApp := &cli.App{
		Name:  "likes",
		Usage: "manage your marketplace favorites",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: cfg.GRPCAddr(), EnvVars: []string{"LIKES_ADDR"}, Usage: "like store address"},
			&cli.StringFlag{Name: "user", Aliases: []string{"u"}, EnvVars: []string{"LIKES_USER"}, Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, EnvVars: []string{"LIKES_PASSWORD"}, Required: true},
			&cli.StringFlag{Name: "queue", Value: cfg.Likes.QueueBackend, Usage: "offline queue backend: memory or redis"},
			&cli.StringFlag{Name: "device", Value: hostname(), Usage: "offline queue name when the backend is redis"},
		},
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "show whether you like an item and its total likes",
				ArgsUsage: "TYPE ID",
				Action:    withClient(cfg, statusCmd),
			},
			{
				Name:      "toggle",
				Usage:     "like or unlike an item",
				ArgsUsage: "TYPE ID",
				Flags:     itemFlags(),
				Action:    withClient(cfg, toggleCmd),
			},
			{
				Name:      "unlike",
				Usage:     "remove an item from your favorites",
				ArgsUsage: "TYPE ID",
				Action:    withClient(cfg, unlikeCmd),
			},
			{
				Name:  "list",
				Usage: "list your favorites, newest first",
				Flags: append(pageFlags(cfg), &cli.StringFlag{Name: "type", Usage: "only this item type"}),
				Action: withClient(cfg, listCmd),
			},
			{
				Name:      "search",
				Usage:     "search your favorites by title, description, make or model",
				ArgsUsage: "QUERY",
				Flags:     pageFlags(cfg),
				Action:    withClient(cfg, searchCmd),
			},
			{
				Name:   "clear",
				Usage:  "remove all favorites, or those of one type",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "type"}},
				Action: withClient(cfg, clearCmd),
			},
			{
				Name:   "queue",
				Usage:  "show toggles waiting for a connection",
				Action: withClient(cfg, queueCmd),
			},
			{
				Name:   "sync",
				Usage:  "replay queued toggles now",
				Action: withClient(cfg, syncCmd),
			},
			{
				Name:   "watch",
				Usage:  "stay connected, print like changes and sync whenever the store comes back",
				Action: withClient(cfg, watchCmd),
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// client bundles what every command needs.
type client struct {
	conn    *grpc.ClientConn
	gw      *likes.Gateway
	cache   *likes.Cache
	signal  *likes.ConnectivitySignal
	online  bool
	closers []func() error
}

func (c *client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

func withClient(cfg *config.Config, run func(*cli.Context, *client) error) cli.ActionFunc {
	return func(cctx *cli.Context) error {
		c, err := newClient(cctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()
		return run(cctx, c)
	}
}

func newClient(cctx *cli.Context, cfg *config.Config) (*client, error) {
	ctx := cctx.Context
	log := logger.Named("likes-cli")

	conn, err := remote.Dial(cctx.String("addr"))
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cctx.String("addr"), err)
	}
	c := &client{conn: conn, closers: []func() error{conn.Close}}

	device, username := cctx.String("device"), cctx.String("user")
	queueStore, rc, err := openQueueStore(ctx, cfg, cctx.String("queue"), device)
	if err != nil {
		c.Close()
		return nil, err
	}
	if rc != nil {
		c.closers = append(c.closers, rc.Close)
	}

	session := likes.NewSessionState("")
	c.online = remote.Probe(ctx, conn, probeTimeout)
	if c.online {
		acct, err := remote.SignIn(ctx, conn, username, cctx.String("password"))
		if err != nil {
			c.Close()
			return nil, err
		}
		session.SignIn(acct.UserID)
		if rc != nil {
			if err := rc.RememberUser(ctx, device, username, acct.UserID); err != nil {
				log.Warn("failed to remember session", "err", err)
			}
		}
	} else {
		userID, err := offlineUser(ctx, rc, device, username)
		if err != nil {
			c.Close()
			return nil, err
		}
		session.SignIn(userID)
		log.Warn("like store unreachable, working offline", "addr", cctx.String("addr"))
	}

	store := remote.NewStore(conn)
	c.gw = likes.NewGateway(store, session, log,
		likes.WithPageSizes(cfg.Likes.PageSize, cfg.Likes.MaxPageSize))
	c.signal = likes.NewConnectivitySignal(c.online)
	c.cache = likes.NewCache(c.gw, session, c.signal, log,
		likes.WithStatusTTL(cfg.Likes.StatusTTL),
		likes.WithQueue(likes.NewOfflineQueue(queueStore, log)),
		likes.WithNotifier(printNotifier{}),
	)

	// a reachable store is a reconnect for whatever an earlier run queued
	queued, err := c.cache.Queue().Len(ctx)
	if err != nil {
		log.Error("offline queue unreadable", "err", err)
	}
	if c.online && queued > 0 {
		report, err := c.cache.ReplayQueue(ctx)
		if err != nil {
			log.Error("offline queue replay failed", "err", err)
		} else {
			fmt.Fprintf(os.Stderr, "synced %d queued toggles (%d failed)\n", report.Replayed, report.Failed)
		}
	}
	return c, nil
}

// openQueueStore returns the Redis client too when the queue lives there.
func openQueueStore(ctx context.Context, cfg *config.Config, backend, device string) (likes.QueueStore, *cache.RedisCache, error) {
	switch backend {
	case "", "memory":
		return likes.NewMemoryQueueStore(), nil, nil
	case "redis":
		rc := cache.NewRedisCache(cfg)
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, nil, fmt.Errorf("offline queue redis unavailable: %w", err)
		}
		return cache.NewRedisQueueStore(rc, device), rc, nil
	}
	return nil, nil, fmt.Errorf("unknown queue backend %q", backend)
}

// offlineUser finds the id queued intents must carry without reaching the
// server. Only a persistent queue can hold them until the next run.
func offlineUser(ctx context.Context, rc *cache.RedisCache, device, username string) (string, error) {
	if rc == nil {
		return "", errors.New("like store unreachable; use --queue redis to keep toggles until it is back")
	}
	userID, ok, err := rc.RecallUser(ctx, device, username)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s has not signed in on %s yet; connect once before working offline", username, device)
	}
	return userID, nil
}

// printNotifier shows notices on stderr.
type printNotifier struct{}

func (printNotifier) Notify(_ context.Context, n likes.Notice) {
	fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Level, n.Message)
}

func keyArgs(cctx *cli.Context) (likes.ItemType, string, error) {
	if cctx.NArg() != 2 {
		return "", "", fmt.Errorf("expected TYPE ID, got %d arguments", cctx.NArg())
	}
	t, err := likes.ParseItemType(cctx.Args().Get(0))
	if err != nil {
		return "", "", err
	}
	return t, cctx.Args().Get(1), nil
}

func statusCmd(cctx *cli.Context, c *client) error {
	t, id, err := keyArgs(cctx)
	if err != nil {
		return err
	}
	st, err := c.cache.Status(cctx.Context, t, id)
	if err != nil {
		return err
	}
	printStatus(likes.Key{Type: t, ID: id}, st)
	return nil
}

func toggleCmd(cctx *cli.Context, c *client) error {
	t, id, err := keyArgs(cctx)
	if err != nil {
		return err
	}
	if err := c.cache.Toggle(cctx.Context, t, id, itemDataFromFlags(t, cctx)); err != nil {
		return err
	}
	snap := c.cache.Peek(t, id)
	printStatus(snap.Key, snap.Status)
	if snap.Queued > 0 {
		fmt.Println("(queued until the store is reachable)")
	}
	return nil
}

func unlikeCmd(cctx *cli.Context, c *client) error {
	t, id, err := keyArgs(cctx)
	if err != nil {
		return err
	}
	st, err := c.gw.Unlike(cctx.Context, t, id)
	if err != nil {
		return err
	}
	printStatus(likes.Key{Type: t, ID: id}, st)
	return nil
}

func listCmd(cctx *cli.Context, c *client) error {
	q := likes.ListQuery{Page: cctx.Int("page"), PageSize: cctx.Int("page-size")}
	if raw := cctx.String("type"); raw != "" {
		t, err := likes.ParseItemType(raw)
		if err != nil {
			return err
		}
		q.Type = t
	}
	page, err := c.cache.List(cctx.Context, q)
	if err != nil {
		return err
	}
	printPage(page)
	return nil
}

func searchCmd(cctx *cli.Context, c *client) error {
	page, err := c.cache.Search(cctx.Context, likes.SearchQuery{
		Query:    strings.Join(cctx.Args().Slice(), " "),
		Page:     cctx.Int("page"),
		PageSize: cctx.Int("page-size"),
	})
	if err != nil {
		return err
	}
	printPage(page)
	return nil
}

func clearCmd(cctx *cli.Context, c *client) error {
	var t likes.ItemType
	if raw := cctx.String("type"); raw != "" {
		parsed, err := likes.ParseItemType(raw)
		if err != nil {
			return err
		}
		t = parsed
	}
	n, err := c.gw.Clear(cctx.Context, t)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d favorites\n", n)
	return nil
}

func queueCmd(cctx *cli.Context, c *client) error {
	pending, err := c.cache.Queue().Pending(cctx.Context)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("nothing queued")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QUEUED AT\tACTION\tITEM\tID")
	for _, in := range pending {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", in.QueuedAt.Local().Format(time.DateTime), in.Action, in.Key, in.ID)
	}
	return w.Flush()
}

func syncCmd(cctx *cli.Context, c *client) error {
	if !c.online {
		return fmt.Errorf("like store unreachable at %s", cctx.String("addr"))
	}
	report, err := c.cache.ReplayQueue(cctx.Context)
	if err != nil {
		return err
	}
	fmt.Printf("replayed %d, failed %d\n", report.Replayed, report.Failed)
	return nil
}

func watchCmd(cctx *cli.Context, c *client) error {
	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	unsubscribe := c.cache.Subscribe(func(ev likes.Event) {
		fmt.Printf("%s %s liked=%t total=%d queued=%d\n",
			ev.Key, ev.State, ev.Status.IsLiked, ev.Status.TotalLikes, ev.Queued)
	})
	defer unsubscribe()

	go remote.WatchConnectivity(ctx, c.conn, c.signal)
	fmt.Println("watching; press Ctrl-C to stop")
	if err := c.cache.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printStatus(key likes.Key, st likes.LikeStatus) {
	mark := "not liked"
	if st.IsLiked {
		mark = "liked"
	}
	fmt.Printf("%s: %s (%d total)\n", key, mark, st.TotalLikes)
}

func printPage(p likes.Page) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LIKED AT\tTYPE\tID\tTITLE")
	for _, it := range p.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.LikedAt.Local().Format(time.DateTime), it.Key.Type, it.Key.ID, it.Data.Summary().Title)
	}
	_ = w.Flush()

	more := ""
	if p.HasMore {
		more = ", more on the next page"
	}
	fmt.Printf("page %d, %d of %d%s\n", p.Page, len(p.Items), p.Total, more)
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "default"
}
