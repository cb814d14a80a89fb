// Command hushnode is the composition root: it reads configuration, wires
// every component built under pkg/ into one running validator process, and
// blocks until signaled to shut down.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hushnetwork-social/hush-node/pkg/assembler"
	"github.com/hushnetwork-social/hush-node/pkg/chaincache"
	"github.com/hushnetwork-social/hush-node/pkg/chainfoundation"
	"github.com/hushnetwork-social/hush-node/pkg/config"
	"github.com/hushnetwork-social/hush-node/pkg/dispatcher"
	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/feeds"
	"github.com/hushnetwork-social/hush-node/pkg/idempotency"
	"github.com/hushnetwork-social/hush-node/pkg/mempool"
	"github.com/hushnetwork-social/hush-node/pkg/membership"
	"github.com/hushnetwork-social/hush-node/pkg/metrics"
	"github.com/hushnetwork-social/hush-node/pkg/notify"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
	"github.com/hushnetwork-social/hush-node/pkg/registry"
	"github.com/hushnetwork-social/hush-node/pkg/rpc"
	"github.com/hushnetwork-social/hush-node/pkg/scheduler"
	"github.com/hushnetwork-social/hush-node/pkg/strategies"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
	"github.com/hushnetwork-social/hush-node/pkg/validators"
	"github.com/hushnetwork-social/hush-node/pkg/zkreaction"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("hushnode: %v", err)
	}
}

func run() error {
	logger := log.New(log.Writer(), "[hushnode] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	credential, err := stackerCredential(cfg)
	if err != nil {
		return fmt.Errorf("loading stacker credential: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persist, err := persistence.NewClient(cfg, persistence.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer persist.Close()

	if err := persist.MigrateUp(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}

	m := metrics.New()
	bus := eventbus.New()
	cache := chaincache.New()
	feedsRepoForGate := feeds.NewRepository(persist.DB())
	gate := idempotency.New(feedsRepoForGate, m)
	pool := mempool.New(gate, mempool.WithMaxDrainBatch(cfg.MempoolMaxDrainBatch), mempool.WithMetrics(m))

	kv, err := membership.OpenKV(cfg.MembershipKVDir)
	if err != nil {
		return fmt.Errorf("opening membership kv store: %w", err)
	}
	reactionsRepoForMembership := reactions.NewRepository(persist.DB())
	members := membership.New(reactionsRepoForMembership, kv)

	publisher := buildPublisher(ctx, cfg, logger)

	reg := registry.New()
	registerEntries(reg, persist, bus, members, publisher, credential, cfg)

	producer := assembler.Producer{
		PublicSigningAddress: cfg.StackerPublicSigningAddress,
		PrivateKey:           credential.PrivateKey,
	}
	reward := assembler.RewardSettings{Token: "HUSH", Amount: "1"}
	assem := assembler.New(cache, persist, bus, m, reward, producer)

	foundation := chainfoundation.New(persist, cache, bus, assem)
	if err := foundation.EnsureGenesisAsync(ctx); err != nil {
		return fmt.Errorf("ensuring genesis block: %w", err)
	}

	interval := time.Duration(cfg.BlockIntervalMs) * time.Millisecond
	sched := scheduler.New(pool, assem, bus, interval)
	sched.Start(ctx)
	defer sched.Stop()

	disp := dispatcher.New(reg, bus, m)
	go disp.Run(ctx)

	rpcServer := rpc.New(reg, gate, pool, bus, cache, persist, members)

	mux := http.NewServeMux()
	mux.Handle("/rpc/", rpcServer)
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		logger.Printf("rpc listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("rpc server error: %v", err)
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		logger.Printf("metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
		}
	}()

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if status, err := persist.Health(r.Context()); err != nil || !status.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	healthServer := &http.Server{Addr: cfg.HealthAddr, Handler: healthMux}
	go func() {
		logger.Printf("health listening on %s", cfg.HealthAddr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("health server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
	_ = healthServer.Shutdown(shutdownCtx)

	return nil
}

// stackerCredential decodes the validator's ed25519 signing key from its
// hex-encoded environment form.
func stackerCredential(cfg *config.Config) (validators.Credential, error) {
	raw, err := hex.DecodeString(cfg.StackerPrivateSigningKey)
	if err != nil {
		return validators.Credential{}, fmt.Errorf("decoding stacker private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return validators.Credential{}, fmt.Errorf("stacker private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return validators.Credential{PrivateKey: ed25519.PrivateKey(raw)}, nil
}

// buildPublisher selects the Firestore notification publisher when
// configured, falling back to a no-op otherwise (spec's Firestore
// integration, A6, is optional ambient infrastructure, not a core
// invariant).
func buildPublisher(ctx context.Context, cfg *config.Config, logger *log.Logger) notify.Publisher {
	if !cfg.FirestoreEnabled {
		return notify.NoopPublisher{}
	}
	pub, err := notify.NewFirestorePublisher(ctx, notify.FirestoreConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		Logger:          logger,
	})
	if err != nil {
		logger.Printf("firestore publisher disabled, falling back to noop: %v", err)
		return notify.NoopPublisher{}
	}
	return pub
}

// registerEntries wires one registry.Entry per payload kind: the shared
// decoder table from pkg/txkind, a content validator (generic for every
// kind but reactions), and the index strategy built in this session.
func registerEntries(reg *registry.Registry, persist *persistence.Client, bus *eventbus.Bus, members *membership.Service, publisher notify.Publisher, credential validators.Credential, cfg *config.Config) {
	generic := validators.NewGenericValidator(credential)

	feedsRepo := feeds.NewRepository(persist.DB())
	verifier, verifierErr := zkreaction.NewGroth16Verifier("v1")
	selector := func(circuitVersion string) (zkreaction.Verifier, error) {
		if strings.HasPrefix(circuitVersion, "dev-mode") {
			return zkreaction.DevModeVerifier{}, nil
		}
		if verifierErr != nil {
			return nil, fmt.Errorf("reaction circuit unavailable: %w", verifierErr)
		}
		return verifier, nil
	}
	reactionValidator := validators.NewReactionValidator(credential, feedsRepo, members, cfg.ReactionsMerkleRootGracePeriod, selector)

	reg.Register(registry.Entry{
		Kind:      txkind.KindReward,
		Decode:    txkind.Decoders[txkind.KindReward],
		Validator: generic,
		Strategy:  strategies.NewRewardStrategy(persist),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindSendFunds,
		Decode:    txkind.Decoders[txkind.KindSendFunds],
		Validator: generic,
		Strategy:  strategies.NewSendFundsStrategy(persist),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindFullIdentity,
		Decode:    txkind.Decoders[txkind.KindFullIdentity],
		Validator: generic,
		Strategy:  strategies.NewFullIdentityStrategy(persist),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindUpdateIdentity,
		Decode:    txkind.Decoders[txkind.KindUpdateIdentity],
		Validator: generic,
		Strategy:  strategies.NewUpdateIdentityStrategy(persist, bus),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindNewPersonalFeed,
		Decode:    txkind.Decoders[txkind.KindNewPersonalFeed],
		Validator: generic,
		Strategy:  strategies.NewNewPersonalFeedStrategy(persist),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindNewChatFeed,
		Decode:    txkind.Decoders[txkind.KindNewChatFeed],
		Validator: generic,
		Strategy:  strategies.NewNewChatFeedStrategy(persist),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindNewFeedMessage,
		Decode:    txkind.Decoders[txkind.KindNewFeedMessage],
		Validator: generic,
		Strategy:  strategies.NewNewFeedMessageStrategy(persist, publisher),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindJoinGroupFeed,
		Decode:    txkind.Decoders[txkind.KindJoinGroupFeed],
		Validator: generic,
		Strategy:  strategies.NewJoinGroupFeedStrategy(persist, members),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindLeaveGroupFeed,
		Decode:    txkind.Decoders[txkind.KindLeaveGroupFeed],
		Validator: generic,
		Strategy:  strategies.NewLeaveGroupFeedStrategy(persist, members),
	})
	reg.Register(registry.Entry{
		Kind:      txkind.KindNewReaction,
		Decode:    txkind.Decoders[txkind.KindNewReaction],
		Validator: reactionValidator,
		Strategy:  strategies.NewReactionStrategy(persist, publisher),
	})
}
