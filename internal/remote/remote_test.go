package remote_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/motorplace/internal/app"
	"github.com/oggyb/motorplace/internal/cache"
	"github.com/oggyb/motorplace/internal/config"
	"github.com/oggyb/motorplace/internal/db"
	svcErr "github.com/oggyb/motorplace/internal/errors"
	"github.com/oggyb/motorplace/internal/likes"
	"github.com/oggyb/motorplace/internal/logger"
	"github.com/oggyb/motorplace/internal/remote"
	"github.com/oggyb/motorplace/internal/server"
	"github.com/oggyb/motorplace/internal/service/auth"
	"github.com/oggyb/motorplace/internal/service/likestore"
	"github.com/oggyb/motorplace/internal/wire"
)

type harness struct {
	conn  *grpc.ClientConn
	store *remote.Store
	db    *gorm.DB
}

// setupHarness serves both services over an in-process bufconn listener,
// backed by SQLite and miniredis, with two users: alice and bob (password
// "secret").
func setupHarness(t *testing.T) *harness {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbase, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(dbase))

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	users := []db.User{
		{ID: "alice-id", Username: "alice", Email: "alice@test.com", PasswordHash: string(hash), Role: db.RoleBuyer, Active: true},
		{ID: "bob-id", Username: "bob", Email: "bob@test.com", PasswordHash: string(hash), Role: db.RoleSeller, Active: true},
	}
	require.NoError(t, dbase.Create(&users).Error)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	appCtx := app.New(cfg, dbase, cache.NewRedisCache(cfg), logger.Discard())

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(appCtx.Logger, likestore.NewRegistrar(appCtx), auth.NewRegistrar(appCtx))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := remote.Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &harness{conn: conn, store: remote.NewStore(conn), db: dbase}
}

func (h *harness) gateway(t *testing.T, username string) *likes.Gateway {
	t.Helper()
	acct, err := remote.SignIn(context.Background(), h.conn, username, "secret")
	require.NoError(t, err)
	return likes.NewGateway(h.store, likes.NewSessionState(acct.UserID), logger.Discard())
}

func landCruiser() likes.ProductData {
	return likes.ProductData{
		Title: "2023 Toyota Land Cruiser", Description: "One owner", Price: 85000,
		Currency: "USD", Make: "Toyota", Model: "Land Cruiser", Year: 2023,
	}
}

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	acct, err := remote.SignIn(ctx, h.conn, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, remote.Account{UserID: "alice-id", Username: "alice", Role: db.RoleBuyer}, acct)

	var u db.User
	require.NoError(t, h.db.First(&u, "id = ?", "alice-id").Error)
	assert.False(t, u.LastLoginAt.IsZero())

	_, err = remote.SignIn(ctx, h.conn, "alice", "wrong")
	assert.True(t, svcErr.IsCode(err, svcErr.CodeUnauthenticated))

	_, err = remote.SignIn(ctx, h.conn, "mallory", "secret")
	assert.True(t, svcErr.IsCode(err, svcErr.CodeUnauthenticated))
}

func TestGatewayOverGRPC(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)
	alice := h.gateway(t, "alice")
	bob := h.gateway(t, "bob")

	st, err := alice.Like(ctx, likes.ItemTypeProduct, "veh-1001", landCruiser())
	require.NoError(t, err)
	assert.Equal(t, likes.LikeStatus{IsLiked: true, TotalLikes: 1}, st)

	st, err = bob.Like(ctx, likes.ItemTypeProduct, "veh-1001", landCruiser())
	require.NoError(t, err)
	assert.Equal(t, likes.LikeStatus{IsLiked: true, TotalLikes: 2}, st)

	_, err = alice.Like(ctx, likes.ItemTypeService, "svc-3001", likes.ServiceData{Title: "Ceramic coating", Price: 650})
	require.NoError(t, err)

	page, err := alice.List(ctx, likes.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "svc-3001", page.Items[0].Key.ID)
	assert.EqualValues(t, 2, page.Total)
	assert.False(t, page.HasMore)

	page, err = alice.Search(ctx, likes.SearchQuery{Query: "LAND cruiser"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	data, ok := page.Items[0].Data.(likes.ProductData)
	require.True(t, ok)
	assert.Equal(t, 85000.0, data.Price)
	assert.Equal(t, likes.StatusActive, data.Status)

	// toggling again unlikes
	st, err = alice.Like(ctx, likes.ItemTypeProduct, "veh-1001", landCruiser())
	require.NoError(t, err)
	assert.Equal(t, likes.LikeStatus{IsLiked: false, TotalLikes: 1}, st)

	n, err := alice.Clear(ctx, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	st, err = bob.Status(ctx, likes.ItemTypeProduct, "veh-1001")
	require.NoError(t, err)
	assert.Equal(t, likes.LikeStatus{IsLiked: true, TotalLikes: 1}, st)
}

func TestErrorsCrossTheWire(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	_, err := h.store.Count(ctx, likes.Key{Type: "boat", ID: "b1"})
	var e *svcErr.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, svcErr.CodeInvalidArgument, e.Code)

	// raw status still carries the grpc code
	err = h.conn.Invoke(ctx, wire.FullMethod(wire.LikeStoreService, wire.MethodCount), mustStruct(t, nil), mustStruct(t, nil))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestOptimisticCacheOverGRPC(t *testing.T) {
	ctx := context.Background()
	h := setupHarness(t)

	acct, err := remote.SignIn(ctx, h.conn, "alice", "secret")
	require.NoError(t, err)
	session := likes.NewSessionState(acct.UserID)
	conn := likes.NewConnectivitySignal(false)
	gw := likes.NewGateway(h.store, session, logger.Discard())
	c := likes.NewCache(gw, session, conn, logger.Discard())

	// offline: queued, not sent
	require.NoError(t, c.Toggle(ctx, likes.ItemTypeProduct, "veh-1001", landCruiser()))
	n, err := h.store.Count(ctx, likes.Key{Type: likes.ItemTypeProduct, ID: "veh-1001"})
	require.NoError(t, err)
	assert.Zero(t, n)

	conn.Set(true)
	report, err := c.ReplayQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, likes.ReplayReport{Replayed: 1}, report)

	st, err := gw.Status(ctx, likes.ItemTypeProduct, "veh-1001")
	require.NoError(t, err)
	assert.Equal(t, likes.LikeStatus{IsLiked: true, TotalLikes: 1}, st)
	assert.Equal(t, st, c.Peek(likes.ItemTypeProduct, "veh-1001").Status)

	// online: committed straight away
	require.NoError(t, c.Toggle(ctx, likes.ItemTypeProduct, "veh-1001", landCruiser()))
	assert.Equal(t, likes.LikeStatus{}, c.Peek(likes.ItemTypeProduct, "veh-1001").Status)
}

func TestWatchConnectivity(t *testing.T) {
	h := setupHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.True(t, remote.Probe(ctx, h.conn, 5*time.Second))

	sig := likes.NewConnectivitySignal(false)
	go remote.WatchConnectivity(ctx, h.conn, sig)
	require.Eventually(t, sig.Online, 2*time.Second, 10*time.Millisecond)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}
