package lobby

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/db/model"
	"github.com/triviarena/backend/internal/db/repository"
	"github.com/triviarena/backend/internal/metrics"
	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

// Lobby sizing and content bounds.
const (
	MinQuestionCount = 5
	MaxQuestionCount = 50
	MinPlayers       = 2
	MaxPlayers       = 10
)

// Store is the lobby persistence surface.
type Store interface {
	Create(ctx context.Context, params repository.CreateLobbyParams) (*model.Lobby, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Lobby, error)
	GetByCode(ctx context.Context, code string) (*model.Lobby, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SetCurrentGame(ctx context.Context, lobbyID, gameID uuid.UUID) error
	UpdateOwner(ctx context.Context, lobbyID, newOwnerID uuid.UUID) error
	Archive(ctx context.Context, lobbyID uuid.UUID) error
	AddPlayerID(ctx context.Context, lobbyID, userID uuid.UUID) error
	RemovePlayerID(ctx context.Context, lobbyID, userID uuid.UUID) error
	AddMember(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) error
	RemoveMember(ctx context.Context, lobbyID, userID uuid.UUID) error
	SetMemberReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) error
	IsMember(ctx context.Context, lobbyID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, lobbyID uuid.UUID) ([]model.LobbyPlayer, error)
}

// TopicStore validates topic references.
type TopicStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// GameStarter creates a game from a lobby snapshot when the owner starts it.
type GameStarter interface {
	CreateFromLobby(ctx context.Context, lobby *model.Lobby) (*model.Game, error)
}

// EventSink receives lobby lifecycle events for fan-out to connected clients.
type EventSink interface {
	LobbyPlayerJoined(lobbyID, userID uuid.UUID)
	LobbyPlayerReadyChanged(lobbyID, userID uuid.UUID, ready bool, readyCount, totalCount int)
	LobbyPlayerLeft(lobbyID, userID uuid.UUID, newOwnerID *uuid.UUID)
	LobbyGameStarting(lobbyID, gameID uuid.UUID, countdownSeconds int)
}

// ServiceOptions configures lobby behavior.
type ServiceOptions struct {
	TTL              time.Duration // default: 1h
	CountdownSeconds int           // default: 3
}

// Service owns the lobby state machine from creation through handoff to a
// game.
type Service struct {
	store     Store
	topics    TopicStore
	games     GameStarter
	events    EventSink
	ttl       time.Duration
	countdown int
	logger    zerolog.Logger
}

// NewService creates a lobby service with all dependencies.
func NewService(store Store, topics TopicStore, games GameStarter, events EventSink, opts ServiceOptions, logger zerolog.Logger) *Service {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	countdown := opts.CountdownSeconds
	if countdown <= 0 {
		countdown = 3
	}
	return &Service{
		store:     store,
		topics:    topics,
		games:     games,
		events:    events,
		ttl:       ttl,
		countdown: countdown,
		logger:    logger.With().Str("component", "lobby").Logger(),
	}
}

// CreateParams carries caller-supplied lobby settings.
type CreateParams struct {
	TopicIDs      []uuid.UUID                  `json:"topic_ids"`
	QuestionCount int                          `json:"question_count"`
	MaxPlayers    int                          `json:"max_players"`
	Difficulty    model.DifficultyDistribution `json:"difficulty"`
}

// PlayerView is a member row as shown to clients.
type PlayerView struct {
	UserID   uuid.UUID `json:"user_id"`
	IsReady  bool      `json:"is_ready"`
	IsOwner  bool      `json:"is_owner"`
	JoinedAt time.Time `json:"joined_at"`
}

// View is a lobby plus its membership roster.
type View struct {
	ID            uuid.UUID                    `json:"id"`
	Code          string                       `json:"code"`
	OwnerID       uuid.UUID                    `json:"owner_id"`
	TopicIDs      []uuid.UUID                  `json:"topic_ids"`
	Status        string                       `json:"status"`
	MaxPlayers    int                          `json:"max_players"`
	QuestionCount int                          `json:"question_count"`
	Difficulty    model.DifficultyDistribution `json:"difficulty"`
	CurrentGameID *uuid.UUID                   `json:"current_game_id,omitempty"`
	Players       []PlayerView                 `json:"players"`
	CreatedAt     time.Time                    `json:"created_at"`
	ExpiresAt     time.Time                    `json:"expires_at"`
}

// Create validates settings, allocates a unique invite code and opens a new
// lobby with the caller as owner. The owner is seeded as a ready member.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, params CreateParams) (*View, error) {
	if err := s.validateSettings(ctx, params); err != nil {
		return nil, err
	}

	var created *model.Lobby
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		lobby, err := s.store.Create(ctx, repository.CreateLobbyParams{
			Code:          newCode(),
			OwnerID:       ownerID,
			TopicIDs:      params.TopicIDs,
			QuestionCount: params.QuestionCount,
			Difficulty:    params.Difficulty,
			MaxPlayers:    params.MaxPlayers,
			TTL:           s.ttl,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, httperrors.Internal(httperrors.CodeInternalError, "creating lobby", err)
		}
		created = lobby
		break
	}
	if created == nil {
		return nil, httperrors.New(httperrors.KindConflict, httperrors.CodeCodeExhausted,
			"could not allocate a unique lobby code")
	}

	if err := s.store.AddMember(ctx, created.ID, ownerID, true); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "adding owner to lobby", err)
	}
	if err := s.store.AddPlayerID(ctx, created.ID, ownerID); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "adding owner to lobby", err)
	}

	metrics.LobbiesCreated.Inc()
	s.logger.Info().
		Str("lobby_id", created.ID.String()).
		Str("code", created.Code).
		Str("owner_id", ownerID.String()).
		Msg("lobby created")

	return s.view(ctx, created)
}

// GetByID returns a lobby view.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*View, error) {
	lobby, err := s.getLobby(ctx, func(ctx context.Context) (*model.Lobby, error) {
		return s.store.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, lobby)
}

// GetByCode returns a lobby view resolved by invite code.
func (s *Service) GetByCode(ctx context.Context, code string) (*View, error) {
	if code == "" {
		return nil, httperrors.InvalidInput(httperrors.CodeMissingCode, "lobby code is required")
	}
	lobby, err := s.getLobby(ctx, func(ctx context.Context) (*model.Lobby, error) {
		return s.store.GetByCode(ctx, code)
	})
	if err != nil {
		return nil, err
	}
	return s.view(ctx, lobby)
}

// Join adds a player to a waiting lobby by invite code.
func (s *Service) Join(ctx context.Context, code string, userID uuid.UUID) (*View, error) {
	if code == "" {
		return nil, httperrors.InvalidInput(httperrors.CodeMissingCode, "lobby code is required")
	}
	lobby, err := s.getLobby(ctx, func(ctx context.Context) (*model.Lobby, error) {
		return s.store.GetByCode(ctx, code)
	})
	if err != nil {
		return nil, err
	}

	if lobby.Status != model.StatusWaiting {
		return nil, httperrors.InvalidState(httperrors.CodeLobbyNotWaiting, "lobby is not accepting players")
	}
	isMember, err := s.store.IsMember(ctx, lobby.ID, userID)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "checking membership", err)
	}
	if isMember {
		return nil, httperrors.Conflict(httperrors.CodeAlreadyInLobby, "player already in lobby")
	}
	if len(lobby.PlayerIDs) >= lobby.MaxPlayers {
		return nil, httperrors.New(httperrors.KindFull, httperrors.CodeLobbyFull, "lobby is full")
	}

	// The membership PK backstops the pre-check under concurrent joins.
	if err := s.store.AddMember(ctx, lobby.ID, userID, false); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, httperrors.Conflict(httperrors.CodeAlreadyInLobby, "player already in lobby")
		}
		return nil, httperrors.Internal(httperrors.CodeInternalError, "joining lobby", err)
	}
	if err := s.store.AddPlayerID(ctx, lobby.ID, userID); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "joining lobby", err)
	}

	s.events.LobbyPlayerJoined(lobby.ID, userID)
	s.logger.Info().
		Str("lobby_id", lobby.ID.String()).
		Str("user_id", userID.String()).
		Msg("player joined lobby")

	return s.GetByID(ctx, lobby.ID)
}

// SetReady flips a member's readiness. The owner is always ready and cannot
// change it.
func (s *Service) SetReady(ctx context.Context, lobbyID, userID uuid.UUID, ready bool) (*View, error) {
	lobby, err := s.getLobby(ctx, func(ctx context.Context) (*model.Lobby, error) {
		return s.store.GetByID(ctx, lobbyID)
	})
	if err != nil {
		return nil, err
	}

	if lobby.OwnerID == userID {
		return nil, httperrors.Forbidden(httperrors.CodeOwnerAlwaysReady, "lobby owner is always ready")
	}
	if err := s.requireMember(ctx, lobbyID, userID); err != nil {
		return nil, err
	}
	if err := s.store.SetMemberReady(ctx, lobbyID, userID, ready); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "updating readiness", err)
	}

	view, err := s.view(ctx, lobby)
	if err != nil {
		return nil, err
	}

	readyCount := 0
	for _, p := range view.Players {
		if p.IsReady {
			readyCount++
		}
	}
	s.events.LobbyPlayerReadyChanged(lobbyID, userID, ready, readyCount, len(view.Players))
	return view, nil
}

// Leave removes a player from a lobby. An emptied lobby is archived; when the
// owner leaves a non-empty lobby, the earliest-joined remaining member is
// promoted and forced ready.
func (s *Service) Leave(ctx context.Context, lobbyID, userID uuid.UUID) error {
	lobby, err := s.getLobby(ctx, func(ctx context.Context) (*model.Lobby, error) {
		return s.store.GetByID(ctx, lobbyID)
	})
	if err != nil {
		return err
	}
	if err := s.requireMember(ctx, lobbyID, userID); err != nil {
		return err
	}

	if err := s.store.RemoveMember(ctx, lobbyID, userID); err != nil {
		return httperrors.Internal(httperrors.CodeInternalError, "leaving lobby", err)
	}
	if err := s.store.RemovePlayerID(ctx, lobbyID, userID); err != nil {
		return httperrors.Internal(httperrors.CodeInternalError, "leaving lobby", err)
	}

	remaining, err := s.store.ListMembers(ctx, lobbyID)
	if err != nil {
		return httperrors.Internal(httperrors.CodeInternalError, "listing members", err)
	}

	if len(remaining) == 0 {
		if err := s.store.Archive(ctx, lobbyID); err != nil {
			return httperrors.Internal(httperrors.CodeInternalError, "archiving lobby", err)
		}
		s.logger.Info().Str("lobby_id", lobbyID.String()).Msg("empty lobby archived")
		return nil
	}

	var newOwnerID *uuid.UUID
	if lobby.OwnerID == userID {
		promoted := remaining[0].UserID
		if err := s.store.UpdateOwner(ctx, lobbyID, promoted); err != nil {
			return httperrors.Internal(httperrors.CodeInternalError, "transferring ownership", err)
		}
		if err := s.store.SetMemberReady(ctx, lobbyID, promoted, true); err != nil {
			return httperrors.Internal(httperrors.CodeInternalError, "transferring ownership", err)
		}
		newOwnerID = &promoted
		s.logger.Info().
			Str("lobby_id", lobbyID.String()).
			Str("new_owner_id", promoted.String()).
			Msg("lobby ownership transferred")
	}

	s.events.LobbyPlayerLeft(lobbyID, userID, newOwnerID)
	return nil
}

// Start transitions a waiting lobby into a running game. Owner-only; requires
// at least MinPlayers members, all of them ready.
func (s *Service) Start(ctx context.Context, lobbyID, userID uuid.UUID) (*model.Game, error) {
	lobby, err := s.getLobby(ctx, func(ctx context.Context) (*model.Lobby, error) {
		return s.store.GetByID(ctx, lobbyID)
	})
	if err != nil {
		return nil, err
	}

	if lobby.OwnerID != userID {
		return nil, httperrors.Forbidden(httperrors.CodeNotOwner, "only the lobby owner can start the game")
	}
	if lobby.Status != model.StatusWaiting {
		return nil, httperrors.InvalidState(httperrors.CodeLobbyNotWaiting, "lobby already started")
	}

	members, err := s.store.ListMembers(ctx, lobbyID)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "listing members", err)
	}
	if len(members) < MinPlayers {
		return nil, httperrors.New(httperrors.KindInsufficientPlayers, httperrors.CodeNotEnoughPlayers,
			"at least two players are required to start")
	}
	for _, m := range members {
		if !m.IsReady && m.UserID != lobby.OwnerID {
			return nil, httperrors.New(httperrors.KindNotAllReady, httperrors.CodePlayersNotReady,
				"all players must be ready to start")
		}
	}

	game, err := s.games.CreateFromLobby(ctx, lobby)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateStatus(ctx, lobbyID, model.StatusInProgress); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "starting lobby", err)
	}
	if err := s.store.SetCurrentGame(ctx, lobbyID, game.ID); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "starting lobby", err)
	}

	metrics.GamesStarted.Inc()
	s.events.LobbyGameStarting(lobbyID, game.ID, s.countdown)
	s.logger.Info().
		Str("lobby_id", lobbyID.String()).
		Str("game_id", game.ID.String()).
		Int("players", len(members)).
		Msg("game starting")

	return game, nil
}

func (s *Service) validateSettings(ctx context.Context, params CreateParams) error {
	if params.QuestionCount < MinQuestionCount || params.QuestionCount > MaxQuestionCount {
		return httperrors.InvalidInput(httperrors.CodeInvalidLobbySettings,
			"question count must be between 5 and 50")
	}
	if params.MaxPlayers < MinPlayers || params.MaxPlayers > MaxPlayers {
		return httperrors.InvalidInput(httperrors.CodeInvalidLobbySettings,
			"max players must be between 2 and 10")
	}
	if params.Difficulty.Easy < 0 || params.Difficulty.Medium < 0 || params.Difficulty.Hard < 0 {
		return httperrors.InvalidInput(httperrors.CodeInvalidLobbySettings,
			"difficulty counts must not be negative")
	}
	if params.Difficulty.Total() != params.QuestionCount {
		return httperrors.InvalidInput(httperrors.CodeInvalidLobbySettings,
			"difficulty distribution must sum to the question count")
	}
	if len(params.TopicIDs) == 0 {
		return httperrors.InvalidInput(httperrors.CodeInvalidLobbySettings,
			"at least one topic is required")
	}
	for _, topicID := range params.TopicIDs {
		exists, err := s.topics.Exists(ctx, topicID)
		if err != nil {
			return httperrors.Internal(httperrors.CodeInternalError, "validating topics", err)
		}
		if !exists {
			return httperrors.InvalidInput(httperrors.CodeTopicNotFound, "unknown topic: "+topicID.String())
		}
	}
	return nil
}

func (s *Service) getLobby(ctx context.Context, fetch func(context.Context) (*model.Lobby, error)) (*model.Lobby, error) {
	lobby, err := fetch(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, httperrors.NotFound(httperrors.CodeLobbyNotFound, "lobby not found")
	}
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "loading lobby", err)
	}
	return lobby, nil
}

func (s *Service) requireMember(ctx context.Context, lobbyID, userID uuid.UUID) error {
	isMember, err := s.store.IsMember(ctx, lobbyID, userID)
	if err != nil {
		return httperrors.Internal(httperrors.CodeInternalError, "checking membership", err)
	}
	if !isMember {
		return httperrors.Forbidden(httperrors.CodeNotInLobby, "player is not in this lobby")
	}
	return nil
}

func (s *Service) view(ctx context.Context, lobby *model.Lobby) (*View, error) {
	members, err := s.store.ListMembers(ctx, lobby.ID)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "listing members", err)
	}

	players := make([]PlayerView, 0, len(members))
	for _, m := range members {
		players = append(players, PlayerView{
			UserID:   m.UserID,
			IsReady:  m.IsReady,
			IsOwner:  m.UserID == lobby.OwnerID,
			JoinedAt: m.JoinedAt,
		})
	}

	return &View{
		ID:            lobby.ID,
		Code:          lobby.Code,
		OwnerID:       lobby.OwnerID,
		TopicIDs:      lobby.TopicIDs,
		Status:        lobby.Status,
		MaxPlayers:    lobby.MaxPlayers,
		QuestionCount: lobby.QuestionCount,
		Difficulty:    lobby.Difficulty,
		CurrentGameID: lobby.CurrentGameID,
		Players:       players,
		CreatedAt:     lobby.CreatedAt,
		ExpiresAt:     lobby.ExpiresAt,
	}, nil
}
