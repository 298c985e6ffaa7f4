package errors

// Stable error codes for standardized responses.
const (
	// Authentication
	CodeUnauthorized    = "unauthorized"
	CodeInvalidToken    = "invalid_token"
	CodeEmailTaken      = "email_taken"
	CodeLoginFailed     = "login_failed"
	CodeUserNotFound    = "user_not_found"

	// Validation
	CodeInvalidRequest       = "invalid_request"
	CodeInvalidLobbySettings = "invalid_lobby_settings"
	CodeMissingCode          = "missing_code"
	CodeInvalidReadyStatus   = "invalid_ready_status"
	CodeInvalidAnswerIDs     = "invalid_answer_ids"
	CodeInvalidTimeRemaining = "invalid_time_remaining"
	CodeTopicNotFound        = "topic_not_found"

	// Lobby lifecycle
	CodeLobbyNotFound    = "lobby_not_found"
	CodeLobbyNotWaiting  = "lobby_not_waiting"
	CodeAlreadyInLobby   = "already_in_lobby"
	CodeLobbyFull        = "lobby_full"
	CodeNotInLobby       = "not_in_lobby"
	CodeNotOwner         = "not_owner"
	CodeOwnerAlwaysReady = "owner_always_ready"
	CodeNotEnoughPlayers = "not_enough_players"
	CodePlayersNotReady  = "players_not_ready"
	CodeCodeExhausted    = "lobby_code_exhausted"

	// Game lifecycle
	CodeGameNotFound          = "game_not_found"
	CodeGameNotInProgress     = "game_not_in_progress"
	CodeGameNotCompleted      = "game_not_completed"
	CodeNotInGame             = "not_in_game"
	CodeProgressNotFound      = "progress_not_found"
	CodeQuestionNotFound      = "question_not_found"
	CodeInvalidQuestion       = "invalid_question"
	CodeAlreadyAnswered       = "already_answered"
	CodeAllQuestionsCompleted = "all_questions_completed"
	CodeNoQuestions           = "no_questions"
	CodeNoResults             = "no_results"

	// WebSocket
	CodeInvalidPayload     = "invalid_payload"
	CodeUnknownMessageType = "unknown_message_type"

	// Server
	CodeInternalError = "internal_error"
)
