package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/posa/jerseyapp/internal/dependencies/clock"
	"github.com/posa/jerseyapp/internal/metrics"
	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/services/jersey"
	"github.com/posa/jerseyapp/internal/services/notify"
	"github.com/posa/jerseyapp/internal/storage"
)

// Config holds ingestion settings
type Config struct {
	// OrderURL is passed to the notifier for uniform orders
	OrderURL string
	// Notify controls whether confirmations are sent for new registrations
	Notify bool
}

// DefaultConfig returns the default ingestion settings
func DefaultConfig() Config {
	return Config{
		OrderURL: notify.DefaultOrderURL,
		Notify:   true,
	}
}

// Report is the result of processing one email
type Report struct {
	Parsed
	Outcomes []model.Outcome
}

// Created returns the number of new registrations
func (r *Report) Created() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == model.OutcomeCreated {
			n++
		}
	}
	return n
}

// Service turns inbound emails into players and registrations
type Service struct {
	storage   storage.Storage
	parser    *Parser
	allocator *jersey.Allocator
	notifier  notify.Notifier
	clock     clock.Clock
	metrics   *metrics.Ingestion
	cfg       Config
	logger    *slog.Logger
}

// New creates an ingestion Service. m may be nil.
func New(
	store storage.Storage,
	parser *Parser,
	allocator *jersey.Allocator,
	notifier notify.Notifier,
	clk clock.Clock,
	m *metrics.Ingestion,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		storage:   store,
		parser:    parser,
		allocator: allocator,
		notifier:  notifier,
		clock:     clk,
		metrics:   m,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "ingest")),
	}
}

// Process parses raw and records its registrants in one storage unit.
// Confirmations are sent after the unit commits; their failure is logged only.
func (s *Service) Process(ctx context.Context, raw string) (*Report, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, model.ErrEmptyEmail
	}
	start := time.Now()

	parsed := s.parser.Parse(raw)
	report := &Report{Parsed: *parsed, Outcomes: []model.Outcome{}}
	s.metrics.AddSkipped(len(parsed.Skipped))
	s.metrics.AddFiltered(len(parsed.Filtered))

	if len(parsed.Registrants) == 0 {
		s.metrics.ObserveEmail("empty", time.Since(start))
		return report, nil
	}

	err := s.storage.RunInTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		outcomes, err := s.Upsert(ctx, tx, parsed.Registrants, parsed.PromoCode)
		if err != nil {
			return err
		}
		report.Outcomes = outcomes
		return nil
	})
	if err != nil {
		s.metrics.ObserveEmail("error", time.Since(start))
		s.logger.Error("failed to record registrants",
			slog.Int("registrants", len(parsed.Registrants)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	created := report.Created()
	s.metrics.AddCreated(created)
	s.metrics.AddDuplicates(len(report.Outcomes) - created)

	if s.cfg.Notify {
		s.sendConfirmations(ctx, report)
	}

	s.metrics.ObserveEmail("registered", time.Since(start))
	s.logger.Info("email processed",
		slog.String("strategy", parsed.Strategy),
		slog.Int("created", created),
		slog.Int("already_exists", len(report.Outcomes)-created),
		slog.Int("skipped", len(parsed.Skipped)),
		slog.Int("filtered", len(parsed.Filtered)),
		slog.String("promo_code", parsed.PromoCode),
	)
	return report, nil
}

// Upsert reconciles registrants against store in input order. New players get a
// jersey number from their division; existing registrations are left untouched.
func (s *Service) Upsert(
	ctx context.Context,
	store storage.Storage,
	registrants []model.ExtractedRegistrant,
	promoCode string,
) ([]model.Outcome, error) {
	outcomes := make([]model.Outcome, 0, len(registrants))
	for _, r := range registrants {
		outcome, err := s.upsertOne(ctx, store, r, promoCode)
		if err != nil {
			return nil, fmt.Errorf("registrant %q: %w", r.FullName, err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (s *Service) upsertOne(
	ctx context.Context,
	store storage.Storage,
	r model.ExtractedRegistrant,
	promoCode string,
) (model.Outcome, error) {
	player, created, err := s.findOrCreatePlayer(ctx, store, r)
	if err != nil {
		return model.Outcome{}, err
	}

	key := model.RegistrationKey{
		PlayerID: player.ID,
		Division: r.Division,
		Season:   r.Season,
		Sport:    r.Sport,
	}
	existing, err := store.GetRegistrationByKey(ctx, key)
	if err == nil {
		return s.alreadyExists(player, existing), nil
	}
	if !errors.Is(err, model.ErrRegistrationNotFound) {
		return model.Outcome{}, err
	}

	// one registration per player, sport and season even across divisions
	if !created {
		existing, err := findSeasonRegistration(ctx, store, player.ID, r.Sport, r.Season)
		if err != nil {
			return model.Outcome{}, err
		}
		if existing != nil {
			return s.alreadyExists(player, existing), nil
		}
	}

	reg := &model.Registration{
		ID:          model.RegistrationID(uuid.NewString()),
		PlayerID:    player.ID,
		Program:     r.Program,
		Division:    r.Division,
		Sport:       r.Sport,
		Season:      r.Season,
		OrderNumber: r.OrderNumber,
		OrderDate:   r.OrderDate,
		PromoCode:   promoCode,
		CreatedAt:   s.clock.Now(),
	}
	if err := store.SaveRegistration(ctx, reg); err != nil {
		if errors.Is(err, model.ErrRegistrationExists) {
			existing, findErr := findSeasonRegistration(ctx, store, player.ID, r.Sport, r.Season)
			if findErr != nil {
				return model.Outcome{}, findErr
			}
			if existing == nil {
				return model.Outcome{}, err
			}
			return s.alreadyExists(player, existing), nil
		}
		return model.Outcome{}, err
	}

	s.logger.Info("registration created",
		slog.String("player", player.FullName),
		slog.String("division", reg.Division),
		slog.String("sport", reg.Sport),
		slog.String("season", reg.Season),
		slog.Int("jersey", player.Jersey()),
	)
	return model.Outcome{
		Kind:          model.OutcomeCreated,
		Player:        player,
		Registration:  reg,
		PlayerCreated: created,
	}, nil
}

func (s *Service) findOrCreatePlayer(ctx context.Context, store storage.Storage, r model.ExtractedRegistrant) (*model.Player, bool, error) {
	player, err := store.GetPlayerByName(ctx, r.FullName)
	if err == nil {
		return player, false, nil
	}
	if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, false, err
	}

	number, err := s.allocator.Allocate(ctx, store, r.Division)
	if err != nil {
		return nil, false, err
	}

	player = &model.Player{
		ID:           model.PlayerID(uuid.NewString()),
		FullName:     r.FullName,
		JerseyNumber: model.JerseyPtr(number),
		ParentEmail:  r.ParentEmail,
		CreatedAt:    s.clock.Now(),
	}
	if err := store.SavePlayer(ctx, player); err != nil {
		return nil, false, err
	}

	s.logger.Info("player created",
		slog.String("player", player.FullName),
		slog.Int("jersey", number),
	)
	return player, true, nil
}

func (s *Service) alreadyExists(player *model.Player, existing *model.Registration) model.Outcome {
	s.logger.Info("registration already exists",
		slog.String("player", player.FullName),
		slog.String("division", existing.Division),
		slog.String("sport", existing.Sport),
		slog.String("season", existing.Season),
	)
	return model.Outcome{
		Kind:         model.OutcomeAlreadyExists,
		Player:       player,
		Registration: existing,
	}
}

func findSeasonRegistration(ctx context.Context, store storage.Storage, playerID model.PlayerID, sport, season string) (*model.Registration, error) {
	regs, err := store.ListRegistrationsForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	for _, reg := range regs {
		if strings.EqualFold(reg.Sport, sport) && strings.EqualFold(reg.Season, season) {
			return reg, nil
		}
	}
	return nil, nil
}

func (s *Service) sendConfirmations(ctx context.Context, report *Report) {
	for _, o := range report.Outcomes {
		if o.Kind != model.OutcomeCreated {
			continue
		}
		if o.Player.ParentEmail == "" {
			s.logger.Info("no parent email for confirmation", slog.String("player", o.Player.FullName))
			continue
		}

		err := s.notifier.SendConfirmation(ctx, notify.Confirmation{
			Recipient:    o.Player.ParentEmail,
			PlayerName:   o.Player.FullName,
			JerseyNumber: o.Player.Jersey(),
			OrderURL:     s.cfg.OrderURL,
			Registration: o.Registration,
			PromoCode:    o.Registration.PromoCode,
		})
		if err != nil {
			s.metrics.IncNotificationFailure()
			s.logger.Error("confirmation notification failed",
				slog.String("player", o.Player.FullName),
				slog.String("error", err.Error()),
			)
			continue
		}

		o.Registration.ConfirmationSent = true
		if err := s.storage.SaveRegistration(ctx, o.Registration); err != nil {
			o.Registration.ConfirmationSent = false
			s.logger.Error("failed to mark confirmation sent",
				slog.String("player", o.Player.FullName),
				slog.String("error", err.Error()),
			)
		}
	}
}
