package editor

import "fmt"

// OutcomeKind классифицирует результат операции редактора.
type OutcomeKind int

const (
	// OutcomeApplied — операция выполнена, данные изменены или отправлены.
	OutcomeApplied OutcomeKind = iota
	// OutcomeSkipped — предусловие не выполнено, операция тихо пропущена.
	// Пропуск — ожидаемое поведение (нет буфера обмена, не-куб и т.п.), не сбой.
	OutcomeSkipped
	// OutcomeFailed — операция прервана ошибкой, частичных изменений нет.
	OutcomeFailed
)

// String возвращает строковое представление результата
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeApplied:
		return "applied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Причины пропуска операций. Тесты проверяют конкретную причину,
// поэтому значения фиксированы.
const (
	SkipNoChannel       = "no_client_channel"
	SkipNoLayerSelected = "no_layer_selected"
	SkipLayerNotFound   = "layer_not_found"
	SkipNoRegister      = "empty_block_register"
	SkipNotCube         = "block_not_cube"
	SkipNoChanges       = "nothing_changed"
)

// Outcome описывает исход одной операции редактора.
type Outcome struct {
	Kind   OutcomeKind
	Reason string // Заполнено для Skipped
	Err    error  // Заполнено для Failed
}

// Applied возвращает успешный исход.
func Applied() Outcome {
	return Outcome{Kind: OutcomeApplied}
}

// Skipped возвращает исход «пропущено» с причиной.
func Skipped(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Failed возвращает исход с ошибкой.
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeFailed, Err: err}
}

// String возвращает человекочитаемое описание исхода
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSkipped:
		return fmt.Sprintf("skipped(%s)", o.Reason)
	case OutcomeFailed:
		return fmt.Sprintf("failed(%v)", o.Err)
	default:
		return o.Kind.String()
	}
}
