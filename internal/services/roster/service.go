package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/posa/jerseyapp/internal/dependencies/clock"
	"github.com/posa/jerseyapp/internal/model"
	"github.com/posa/jerseyapp/internal/services/jersey"
	"github.com/posa/jerseyapp/internal/services/notify"
	"github.com/posa/jerseyapp/internal/services/promo"
	"github.com/posa/jerseyapp/internal/storage"
)

// divisionOrder is the display order for the common age brackets
var divisionOrder = map[string]int{"U4": 0, "U6": 1, "U8": 2, "U10": 3, "U12": 4, "U14": 5}

// Config holds roster settings
type Config struct {
	// DefaultDivision is used to pick a jersey for players added by hand
	DefaultDivision string
	OrderURL        string
	// BackfillPromoCode is stamped on registrations that have no promo code
	BackfillPromoCode string
}

// DefaultConfig returns the default roster settings
func DefaultConfig() Config {
	code, _ := promo.DefaultTable().Derive(1)
	return Config{
		DefaultDivision:   "U6",
		OrderURL:          notify.DefaultOrderURL,
		BackfillPromoCode: code,
	}
}

// Entry is one player line in a division
type Entry struct {
	PlayerID     model.PlayerID
	FullName     string
	ParentEmail  string
	JerseyNumber *int
}

// Division groups the players registered in one division
type Division struct {
	Name    string
	Players []Entry
}

// Sport groups divisions for one sport
type Sport struct {
	Name      string
	Divisions []Division
}

// PlayerDetail is a player with all of their registrations
type PlayerDetail struct {
	Player        *model.Player
	Registrations []*model.Registration
}

// CreatePlayerInput describes a player added by an admin
type CreatePlayerInput struct {
	FullName    string
	ParentEmail string
	Division    string
}

// UpdatePlayerInput holds the fields to change; nil fields are left alone
type UpdatePlayerInput struct {
	FullName     *string
	ParentEmail  *string
	JerseyNumber *int
}

// Service handles admin operations over players
type Service struct {
	storage   storage.Storage
	allocator *jersey.Allocator
	notifier  notify.Notifier
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger
}

// New creates a roster Service
func New(
	store storage.Storage,
	allocator *jersey.Allocator,
	notifier notify.Notifier,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.DefaultDivision == "" {
		cfg.DefaultDivision = DefaultConfig().DefaultDivision
	}
	if cfg.BackfillPromoCode == "" {
		cfg.BackfillPromoCode = DefaultConfig().BackfillPromoCode
	}
	return &Service{
		storage:   store,
		allocator: allocator,
		notifier:  notifier,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "roster")),
	}
}

// Roster returns players grouped by sport, then division
func (s *Service) Roster(ctx context.Context) ([]Sport, error) {
	details, err := s.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string]map[string][]Entry)
	for _, d := range details {
		entry := Entry{
			PlayerID:     d.Player.ID,
			FullName:     d.Player.FullName,
			ParentEmail:  d.Player.ParentEmail,
			JerseyNumber: d.Player.JerseyNumber,
		}
		for _, reg := range d.Registrations {
			if grouped[reg.Sport] == nil {
				grouped[reg.Sport] = make(map[string][]Entry)
			}
			grouped[reg.Sport][reg.Division] = append(grouped[reg.Sport][reg.Division], entry)
		}
	}

	sports := make([]Sport, 0, len(grouped))
	for sport, divisions := range grouped {
		names := make([]string, 0, len(divisions))
		for name := range divisions {
			names = append(names, name)
		}
		SortDivisions(names)

		group := Sport{Name: sport}
		for _, name := range names {
			group.Divisions = append(group.Divisions, Division{Name: name, Players: divisions[name]})
		}
		sports = append(sports, group)
	}
	sort.Slice(sports, func(i, j int) bool { return sports[i].Name < sports[j].Name })
	return sports, nil
}

// SortDivisions orders U4 through U14 first, then anything else alphabetically
func SortDivisions(names []string) {
	sort.Slice(names, func(i, j int) bool {
		oi, iKnown := divisionOrder[strings.ToUpper(names[i])]
		oj, jKnown := divisionOrder[strings.ToUpper(names[j])]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		}
		return names[i] < names[j]
	})
}

// ListPlayers returns every player with their registrations, sorted by name
func (s *Service) ListPlayers(ctx context.Context) ([]PlayerDetail, error) {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]PlayerDetail, 0, len(players))
	for _, p := range players {
		regs, err := s.storage.ListRegistrationsForPlayer(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, PlayerDetail{Player: p, Registrations: regs})
	}
	return details, nil
}

// GetPlayer returns one player with their registrations
func (s *Service) GetPlayer(ctx context.Context, id model.PlayerID) (*PlayerDetail, error) {
	p, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	regs, err := s.storage.ListRegistrationsForPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PlayerDetail{Player: p, Registrations: regs}, nil
}

// CreatePlayer adds a player by hand. The jersey is allocated from the given
// division, or the default division, and a confirmation is sent best effort.
func (s *Service) CreatePlayer(ctx context.Context, in CreatePlayerInput) (*model.Player, error) {
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		return nil, model.ErrNameRequired
	}
	division := strings.TrimSpace(in.Division)
	if division == "" {
		division = s.cfg.DefaultDivision
	}

	var player *model.Player
	err := s.storage.RunInTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		if _, err := tx.GetPlayerByName(ctx, name); err == nil {
			return model.ErrPlayerNameTaken
		} else if !errors.Is(err, model.ErrPlayerNotFound) {
			return err
		}

		number, err := s.allocator.Allocate(ctx, tx, division)
		if err != nil {
			return err
		}

		player = &model.Player{
			ID:           model.PlayerID(uuid.NewString()),
			FullName:     name,
			JerseyNumber: model.JerseyPtr(number),
			ParentEmail:  strings.TrimSpace(in.ParentEmail),
			CreatedAt:    s.clock.Now(),
		}
		return tx.SavePlayer(ctx, player)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("player added",
		slog.String("player", player.FullName),
		slog.Int("jersey", player.Jersey()),
		slog.String("division", division),
	)

	if player.ParentEmail != "" {
		err := s.notifier.SendConfirmation(ctx, notify.Confirmation{
			Recipient:    player.ParentEmail,
			PlayerName:   player.FullName,
			JerseyNumber: player.Jersey(),
			OrderURL:     s.cfg.OrderURL,
		})
		if err != nil {
			s.logger.Error("confirmation notification failed",
				slog.String("player", player.FullName),
				slog.String("error", err.Error()),
			)
		}
	}
	return player, nil
}

// UpdatePlayer edits a player's name, parent email or jersey number
func (s *Service) UpdatePlayer(ctx context.Context, id model.PlayerID, in UpdatePlayerInput) (*model.Player, error) {
	if in.JerseyNumber != nil && !s.allocator.Pool().Contains(*in.JerseyNumber) {
		return nil, model.ErrInvalidJersey
	}

	player, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, model.ErrNameRequired
		}
		player.FullName = name
	}
	if in.ParentEmail != nil {
		player.ParentEmail = strings.TrimSpace(*in.ParentEmail)
	}
	if in.JerseyNumber != nil {
		player.JerseyNumber = model.JerseyPtr(*in.JerseyNumber)
	}

	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	s.logger.Info("player updated", slog.String("player_id", string(id)))
	return player, nil
}

// DeletePlayer removes a player and their registrations
func (s *Service) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	player, err := s.storage.GetPlayer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.storage.DeletePlayer(ctx, id); err != nil {
		return err
	}
	s.logger.Info("player deleted", slog.String("player", player.FullName))
	return nil
}

// BackfillPromo stamps the single-registrant promo code on every registration
// that has none and returns how many were changed
func (s *Service) BackfillPromo(ctx context.Context) (int, error) {
	var updated int
	err := s.storage.RunInTx(ctx, func(ctx context.Context, tx storage.Storage) error {
		updated = 0
		players, err := tx.ListPlayers(ctx)
		if err != nil {
			return err
		}
		for _, p := range players {
			regs, err := tx.ListRegistrationsForPlayer(ctx, p.ID)
			if err != nil {
				return err
			}
			for _, reg := range regs {
				if reg.PromoCode != "" {
					continue
				}
				reg.PromoCode = s.cfg.BackfillPromoCode
				if err := tx.SaveRegistration(ctx, reg); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("promo codes backfilled",
		slog.String("promo_code", s.cfg.BackfillPromoCode),
		slog.Int("registrations", updated),
	)
	return updated, nil
}

// ExportCSV writes every player as Name, Parent Email, Jersey Number
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	players, err := s.storage.ListPlayers(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Name", "Parent Email", "Jersey Number"}); err != nil {
		return err
	}
	for _, p := range players {
		jersey := ""
		if p.HasJersey() {
			jersey = strconv.Itoa(p.Jersey())
		}
		if err := cw.Write([]string{p.FullName, p.ParentEmail, jersey}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
