package game

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/triviarena/backend/internal/db/model"
	"github.com/triviarena/backend/internal/db/repository"
	"github.com/triviarena/backend/internal/game/scoring"
	"github.com/triviarena/backend/internal/leaderboard"
	"github.com/triviarena/backend/internal/metrics"
	httperrors "github.com/triviarena/backend/pkg/http/errors"
)

// Store is the game persistence surface.
type Store interface {
	Create(ctx context.Context, params repository.CreateGameParams) (*model.Game, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Game, error)
	Complete(ctx context.Context, id uuid.UUID) (bool, error)
	CreateProgress(ctx context.Context, gameID, userID uuid.UUID) error
	GetProgress(ctx context.Context, gameID, userID uuid.UUID) (*model.PlayerProgress, error)
	ListProgress(ctx context.Context, gameID uuid.UUID) ([]model.PlayerProgress, error)
	AddScore(ctx context.Context, gameID, userID uuid.UUID, points int) error
	AdvanceProgress(ctx context.Context, gameID, userID uuid.UUID) error
	InsertSubmission(ctx context.Context, params repository.InsertSubmissionParams) error
	CountCorrect(ctx context.Context, gameID, userID uuid.UUID) (int, error)
}

// QuestionStore reads questions and maintains their ask counters.
type QuestionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	RecordAsked(ctx context.Context, id uuid.UUID, wasCorrect bool) error
}

// UserStore resolves player identities and commits lifetime stats after
// completion.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ApplyStatsDelta(ctx context.Context, id uuid.UUID, delta model.StatsDelta) error
}

// LobbyArchiver cascades game completion back onto the lobby.
type LobbyArchiver interface {
	Archive(ctx context.Context, lobbyID uuid.UUID) error
}

// QuestionSupplier selects the question set for a new game.
type QuestionSupplier interface {
	Select(ctx context.Context, topicIDs []uuid.UUID, dist model.DifficultyDistribution) ([]uuid.UUID, error)
}

// Board is the live per-game leaderboard.
type Board interface {
	Init(ctx context.Context, gameID uuid.UUID, playerIDs []uuid.UUID) error
	Increment(ctx context.Context, gameID, userID uuid.UUID, points int) (int, error)
	ReadAll(ctx context.Context, gameID uuid.UUID) ([]leaderboard.Entry, error)
	SetExpiry(ctx context.Context, gameID uuid.UUID) error
}

// ServiceOptions configures the game service.
type ServiceOptions struct {
	QuestionTimeLimit time.Duration // default: 30s
	ScoringConfig     scoring.Config
}

// Service orchestrates game lifecycle, scoring and completion.
type Service struct {
	store     Store
	questions QuestionStore
	users     UserStore
	lobbies   LobbyArchiver
	supplier  QuestionSupplier
	board     Board
	events    EventSink
	engine    *scoring.Engine
	timeLimit float64
	logger    zerolog.Logger
}

// NewService creates a game service with all dependencies.
func NewService(
	store Store,
	questions QuestionStore,
	users UserStore,
	lobbies LobbyArchiver,
	supplier QuestionSupplier,
	board Board,
	events EventSink,
	opts ServiceOptions,
	logger zerolog.Logger,
) *Service {
	timeLimit := opts.QuestionTimeLimit
	if timeLimit <= 0 {
		timeLimit = 30 * time.Second
	}
	scoringCfg := opts.ScoringConfig
	if scoringCfg.BaseEasy == 0 {
		scoringCfg = scoring.DefaultConfig()
	}
	return &Service{
		store:     store,
		questions: questions,
		users:     users,
		lobbies:   lobbies,
		supplier:  supplier,
		board:     board,
		events:    events,
		engine:    scoring.NewEngine(scoringCfg),
		timeLimit: timeLimit.Seconds(),
		logger:    logger.With().Str("component", "game").Logger(),
	}
}

// CreateFromLobby snapshots a lobby into a running game: questions are
// selected once and shared by every participant, progress rows are zeroed and
// the leaderboard is seeded with the full roster.
func (s *Service) CreateFromLobby(ctx context.Context, lobby *model.Lobby) (*model.Game, error) {
	questionIDs, err := s.supplier.Select(ctx, lobby.TopicIDs, lobby.Difficulty)
	if err != nil {
		return nil, err
	}

	game, err := s.store.Create(ctx, repository.CreateGameParams{
		LobbyID:     lobby.ID,
		TopicIDs:    lobby.TopicIDs,
		PlayerIDs:   lobby.PlayerIDs,
		QuestionIDs: questionIDs,
	})
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "creating game", err)
	}

	for _, playerID := range lobby.PlayerIDs {
		if err := s.store.CreateProgress(ctx, game.ID, playerID); err != nil {
			return nil, httperrors.Internal(httperrors.CodeInternalError, "creating player progress", err)
		}
	}

	if err := s.board.Init(ctx, game.ID, lobby.PlayerIDs); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "seeding leaderboard", err)
	}

	s.events.GameStarted(game.ID, lobby.ID, lobby.PlayerIDs)

	if first, err := s.questionView(ctx, game, 0); err != nil {
		s.logger.Warn().Err(err).Str("game_id", game.ID.String()).Msg("loading opening question failed")
	} else {
		for _, playerID := range lobby.PlayerIDs {
			s.events.NextQuestion(game.ID, playerID, first)
		}
	}

	s.logger.Info().
		Str("game_id", game.ID.String()).
		Str("lobby_id", lobby.ID.String()).
		Int("questions", len(questionIDs)).
		Int("players", len(lobby.PlayerIDs)).
		Msg("game created")

	return game, nil
}

// GetCurrentQuestion returns the sanitized question at the player's cursor.
func (s *Service) GetCurrentQuestion(ctx context.Context, gameID, userID uuid.UUID) (*QuestionView, error) {
	game, progress, err := s.loadInProgress(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}
	if progress.CurrentQuestionIndex >= game.TotalQuestions {
		return nil, httperrors.InvalidState(httperrors.CodeAllQuestionsCompleted,
			"player has answered all questions")
	}

	return s.questionView(ctx, game, progress.CurrentQuestionIndex)
}

// questionView loads the question at index and strips solution data.
func (s *Service) questionView(ctx context.Context, game *model.Game, index int) (*QuestionView, error) {
	question, err := s.questions.GetByID(ctx, game.QuestionIDs[index])
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "loading question", err)
	}

	return &QuestionView{
		QuestionID:       question.ID,
		Index:            index,
		TotalQuestions:   game.TotalQuestions,
		Type:             question.Type,
		Difficulty:       question.Difficulty,
		Text:             question.Text,
		Options:          question.Options,
		TimeLimitSeconds: s.timeLimit,
	}, nil
}

// SubmitAnswer validates and records an answer, scores it server-side,
// advances the player's cursor and completes the game once every participant
// has finished. Any question of the game's shared sequence is accepted at
// most once per player; a retry of the same (game, player, question) triple
// hits the submission uniqueness guard and returns a conflict, so the guard
// is the arbiter under concurrency too.
func (s *Service) SubmitAnswer(ctx context.Context, gameID, userID uuid.UUID, params SubmitParams) (*SubmitResult, error) {
	if len(params.AnswerIDs) == 0 {
		return nil, httperrors.InvalidInput(httperrors.CodeInvalidAnswerIDs, "answer ids are required")
	}
	if params.TimeRemaining < 0 || params.TimeRemaining > s.timeLimit {
		return nil, httperrors.InvalidInput(httperrors.CodeInvalidTimeRemaining,
			"time remaining must be between 0 and the question time limit")
	}

	game, progress, err := s.loadInProgress(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}

	questionIndex := -1
	for i, id := range game.QuestionIDs {
		if id == params.QuestionID {
			questionIndex = i
			break
		}
	}
	if questionIndex < 0 {
		return nil, httperrors.InvalidInput(httperrors.CodeInvalidQuestion,
			"question is not part of this game")
	}

	question, err := s.questions.GetByID(ctx, params.QuestionID)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "loading question", err)
	}

	isCorrect := scoring.ValidateAnswer(params.AnswerIDs, question.CorrectAnswerIDs)
	points := 0
	if isCorrect {
		points = s.engine.Points(question.Difficulty, params.TimeRemaining, s.timeLimit)
	}

	err = s.store.InsertSubmission(ctx, repository.InsertSubmissionParams{
		GameID:        gameID,
		UserID:        userID,
		QuestionID:    params.QuestionID,
		AnswerIDs:     params.AnswerIDs,
		IsCorrect:     isCorrect,
		TimeRemaining: params.TimeRemaining,
		PointsEarned:  points,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, httperrors.Conflict(httperrors.CodeAlreadyAnswered, "question already answered")
	}
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "recording submission", err)
	}

	totalScore := progress.Score
	if isCorrect {
		if err := s.store.AddScore(ctx, gameID, userID, points); err != nil {
			return nil, httperrors.Internal(httperrors.CodeInternalError, "updating score", err)
		}
		totalScore, err = s.board.Increment(ctx, gameID, userID, points)
		if err != nil {
			return nil, httperrors.Internal(httperrors.CodeInternalError, "updating leaderboard", err)
		}
	}
	if err := s.store.AdvanceProgress(ctx, gameID, userID); err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "advancing progress", err)
	}

	if err := s.questions.RecordAsked(ctx, question.ID, isCorrect); err != nil {
		s.logger.Warn().Err(err).Str("question_id", question.ID.String()).Msg("recording ask counter failed")
	}

	verdict := "incorrect"
	if isCorrect {
		verdict = "correct"
	}
	metrics.AnswersSubmitted.WithLabelValues(verdict).Inc()

	nextIndex := progress.CurrentQuestionIndex + 1
	finished := nextIndex >= game.TotalQuestions
	result := &SubmitResult{
		IsCorrect:        isCorrect,
		PointsEarned:     points,
		TotalScore:       totalScore,
		CorrectAnswerIDs: question.CorrectAnswerIDs,
		Explanation:      question.Explanation,
		NextIndex:        nextIndex,
		Finished:         finished,
	}

	s.events.PlayerAnswered(gameID, userID, questionIndex, finished)
	s.events.QuestionResult(gameID, userID, result)
	if !finished {
		if next, err := s.questionView(ctx, game, nextIndex); err != nil {
			s.logger.Warn().Err(err).Str("game_id", gameID.String()).Msg("loading next question failed")
		} else {
			s.events.NextQuestion(gameID, userID, next)
		}
	}
	if entries, err := s.board.ReadAll(ctx, gameID); err == nil {
		s.events.LeaderboardUpdated(gameID, entries)
	} else {
		s.logger.Warn().Err(err).Str("game_id", gameID.String()).Msg("reading leaderboard failed")
	}

	if finished {
		if err := s.checkAndComplete(ctx, game); err != nil {
			s.logger.Error().Err(err).Str("game_id", gameID.String()).Msg("completion check failed")
		}
	}

	return result, nil
}

// GetState returns a live snapshot of the game for any participant.
func (s *Service) GetState(ctx context.Context, gameID, userID uuid.UUID) (*StateView, error) {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(game, userID); err != nil {
		return nil, err
	}

	progress, err := s.store.ListProgress(ctx, gameID)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "listing progress", err)
	}

	players := make([]PlayerState, 0, len(progress))
	for _, p := range progress {
		players = append(players, PlayerState{
			UserID:               p.UserID,
			CurrentQuestionIndex: p.CurrentQuestionIndex,
			Score:                p.Score,
			Finished:             p.CurrentQuestionIndex >= game.TotalQuestions,
		})
	}

	entries, err := s.board.ReadAll(ctx, gameID)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "reading leaderboard", err)
	}

	return &StateView{
		GameID:         game.ID,
		LobbyID:        game.LobbyID,
		Status:         game.Status,
		TotalQuestions: game.TotalQuestions,
		Players:        players,
		Leaderboard:    entries,
	}, nil
}

// GetResults returns final standings for a completed game, including the
// winner and the requesting player's own row.
func (s *Service) GetResults(ctx context.Context, gameID, userID uuid.UUID) (*ResultsView, error) {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(game, userID); err != nil {
		return nil, err
	}
	if game.Status != model.StatusCompleted {
		return nil, httperrors.InvalidState(httperrors.CodeGameNotCompleted, "game is not completed")
	}

	results, err := s.results(ctx, game)
	if err != nil {
		return nil, err
	}

	view := &ResultsView{GameID: game.ID, Results: results}
	for i := range results {
		if results[i].Rank == 1 && view.Winner == nil {
			view.Winner = &results[i]
		}
		if results[i].UserID == userID {
			view.Requester = &results[i]
		}
	}
	return view, nil
}

// checkAndComplete completes the game once every participant's cursor has
// passed the last question. The guarded status flip in the store makes the
// completion side effects run exactly once even when the last two players
// finish simultaneously.
func (s *Service) checkAndComplete(ctx context.Context, game *model.Game) error {
	progress, err := s.store.ListProgress(ctx, game.ID)
	if err != nil {
		return err
	}
	if len(progress) < len(game.PlayerIDs) {
		return nil
	}
	for _, p := range progress {
		if p.CurrentQuestionIndex < game.TotalQuestions {
			return nil
		}
	}

	won, err := s.store.Complete(ctx, game.ID)
	if err != nil {
		return err
	}
	if !won {
		return nil
	}

	results, err := s.results(ctx, game)
	if err != nil {
		return err
	}

	for _, r := range results {
		delta := model.StatsDelta{GamesPlayed: 1, TotalPoints: r.Score}
		if r.Victory {
			delta.Victories = 1
		}
		if err := s.users.ApplyStatsDelta(ctx, r.UserID, delta); err != nil {
			s.logger.Warn().Err(err).Str("user_id", r.UserID.String()).Msg("stats commit failed")
		}
	}

	if err := s.lobbies.Archive(ctx, game.LobbyID); err != nil {
		s.logger.Warn().Err(err).Str("lobby_id", game.LobbyID.String()).Msg("lobby archive failed")
	}
	if err := s.board.SetExpiry(ctx, game.ID); err != nil {
		s.logger.Warn().Err(err).Str("game_id", game.ID.String()).Msg("leaderboard expiry failed")
	}

	metrics.GamesCompleted.Inc()
	s.events.GameOver(game.ID, results)
	s.logger.Info().
		Str("game_id", game.ID.String()).
		Int("players", len(results)).
		Msg("game completed")

	return nil
}

func (s *Service) results(ctx context.Context, game *model.Game) ([]PlayerResult, error) {
	entries, err := s.board.ReadAll(ctx, game.ID)
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "reading leaderboard", err)
	}
	if len(entries) == 0 {
		return nil, httperrors.New(httperrors.KindNotFound, httperrors.CodeNoResults, "results no longer available")
	}

	results := make([]PlayerResult, 0, len(entries))
	for _, e := range entries {
		correct, err := s.store.CountCorrect(ctx, game.ID, e.UserID)
		if err != nil {
			return nil, httperrors.Internal(httperrors.CodeInternalError, "counting correct answers", err)
		}
		email := ""
		if u, err := s.users.GetByID(ctx, e.UserID); err == nil {
			email = u.Email
		} else {
			s.logger.Warn().Err(err).Str("user_id", e.UserID.String()).Msg("resolving player identity failed")
		}
		results = append(results, PlayerResult{
			UserID:       e.UserID,
			Email:        email,
			Rank:         e.Rank,
			Score:        e.Score,
			CorrectCount: correct,
			Victory:      e.Rank == 1,
		})
	}
	return results, nil
}

func (s *Service) getGame(ctx context.Context, gameID uuid.UUID) (*model.Game, error) {
	game, err := s.store.GetByID(ctx, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, httperrors.NotFound(httperrors.CodeGameNotFound, "game not found")
	}
	if err != nil {
		return nil, httperrors.Internal(httperrors.CodeInternalError, "loading game", err)
	}
	return game, nil
}

func (s *Service) loadInProgress(ctx context.Context, gameID, userID uuid.UUID) (*model.Game, *model.PlayerProgress, error) {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}
	if game.Status != model.StatusInProgress {
		return nil, nil, httperrors.InvalidState(httperrors.CodeGameNotInProgress, "game is not in progress")
	}

	progress, err := s.store.GetProgress(ctx, gameID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, httperrors.Forbidden(httperrors.CodeNotInGame, "player is not in this game")
	}
	if err != nil {
		return nil, nil, httperrors.Internal(httperrors.CodeInternalError, "loading progress", err)
	}
	return game, progress, nil
}

func (s *Service) requireParticipant(game *model.Game, userID uuid.UUID) error {
	for _, id := range game.PlayerIDs {
		if id == userID {
			return nil
		}
	}
	return httperrors.Forbidden(httperrors.CodeNotInGame, "player is not in this game")
}
