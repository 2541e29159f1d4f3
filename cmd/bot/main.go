// Command bot seats a table of bots in one match and plays it to the end
// over the WebSocket relay or Redis. Seat 0 hosts and deals.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"herowiz/internal/app"
	"herowiz/internal/bot"
	"herowiz/internal/config"
	"herowiz/internal/domain"
	"herowiz/internal/logging"
	"herowiz/internal/ports"
	"herowiz/internal/ports/redisbus"
	"herowiz/internal/ports/wsclient"
	"herowiz/internal/session"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		transportName = flag.String("transport", "ws", "match channel: ws or redis")
		relayURL      = flag.String("relay", "ws://localhost:8080", "relay base url for the ws transport")
		matchID       = flag.String("match", "", "match id; a new one is created when empty")
		botCount      = flag.Int("bots", 2, "number of bots to seat")
		think         = flag.Duration("think", 500*time.Millisecond, "pause before each bot move")
		identities    = flag.String("identities", "", "optional bot identities json")
	)
	flag.Parse()

	cfg := config.Load()
	log, err := logging.NewZapLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(*transportName, *relayURL, *matchID, *botCount, *think, *identities, cfg, log); err != nil {
		log.Error("Bot table failed: %v", err)
		os.Exit(1)
	}
}

func run(transportName, relayURL, matchID string, botCount int, think time.Duration, identities string, cfg *config.RuntimeConfig, log *logging.ZapLogger) error {
	if cfg.GameConfigPath != "" {
		if err := config.LoadGameConfig(cfg.GameConfigPath); err != nil {
			return err
		}
	}
	gameCfg := config.GetGameConfig()
	rules, err := gameCfg.Rules()
	if err != nil {
		return err
	}
	if botCount < rules.MinPlayers || botCount > rules.MaxPlayers {
		return fmt.Errorf("bots must be between %d and %d", rules.MinPlayers, rules.MaxPlayers)
	}
	if identities != "" {
		if err := bot.LoadIdentities(identities); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dial func(ctx context.Context, participantID string) (ports.Transport, error)
	switch transportName {
	case "ws":
		if matchID == "" {
			if matchID, err = wsclient.CreateMatch(ctx, relayURL); err != nil {
				return err
			}
		}
		dial = func(ctx context.Context, participantID string) (ports.Transport, error) {
			return wsclient.Dial(ctx, wsclient.Config{BaseURL: relayURL, MatchID: matchID, ParticipantID: participantID}, log)
		}
	case "redis":
		if matchID == "" {
			matchID = uuid.NewString()
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		dial = func(ctx context.Context, participantID string) (ports.Transport, error) {
			return redisbus.New(ctx, client, redisbus.Config{MatchID: matchID, ParticipantID: participantID}, log)
		}
	default:
		return fmt.Errorf("unknown transport %q", transportName)
	}
	log.Info("Seating %d bots in match %s over %s", botCount, matchID, transportName)

	seats := make([]domain.Seat, botCount)
	sessions := make([]*session.Session, 0, botCount)
	defer func() {
		for _, s := range sessions {
			_ = s.Close()
		}
	}()

	var wg sync.WaitGroup
	errs := make(chan error, botCount)
	for i := 0; i < botCount; i++ {
		identity := bot.GetBotIdentity(i)
		seats[i] = domain.Seat{ID: identity.UserID, Name: identity.DisplayName}

		transport, err := dial(ctx, identity.UserID)
		if err != nil {
			return err
		}
		svc := app.NewService(rules, nil)
		sess := session.New(session.Config{
			MatchID:           matchID,
			ParticipantID:     identity.UserID,
			Seat:              i,
			Name:              identity.DisplayName,
			NoticeDisplay:     gameCfg.NoticeDisplay(),
			DisconnectGrace:   gameCfg.DisconnectGrace(),
			RequestStateDelay: gameCfg.RequestStateDelay(),
		}, svc, transport, log)
		if err := sess.Start(ctx); err != nil {
			_ = transport.Close()
			return err
		}
		sessions = append(sessions, sess)

		agent, err := bot.NewAgent(identity, i, svc)
		if err != nil {
			return err
		}
		agentLog := log.WithFields(map[string]interface{}{"bot": identity.DisplayName, "seat": i})
		wg.Add(1)
		go func(agent *bot.Agent, sess *session.Session, logger runtime.Logger) {
			defer wg.Done()
			errs <- agent.Run(ctx, sess, think, logger)
		}(agent, sess, agentLog)
	}

	if err := sessions[0].StartGame(seats); err != nil {
		return err
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil && ctx.Err() == nil {
			return err
		}
	}
	final := sessions[0].Snapshot()
	if final.State != nil && final.State.Over() {
		log.Info("Match %s finished, winner %s", matchID, final.State.Winner)
	}
	return nil
}
