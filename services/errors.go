package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrTeamNameRequired      = errors.New("team name is required")
	ErrTeamSelectionRequired = errors.New("both teams must be selected and distinct")
	ErrUnknownStage          = errors.New("unknown stage")
	ErrStageNotGeneratable   = errors.New("stage has no automatic pairing engine")

	// Конфликты состояния матча
	ErrMatchAlreadyCompleted = errors.New("match is already completed")
	ErrTiedEliminationMatch  = errors.New("elimination match cannot end in a tie")
	ErrTeamMismatch          = errors.New("team ids do not match the match sides")

	// Экспорт результатов
	ErrExportDisabled = errors.New("results export is not configured")
)
