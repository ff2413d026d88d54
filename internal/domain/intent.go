package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentNext
	IntentPrevious
	IntentGoTo
	IntentSetField // Field + Payload carry the edit
	IntentQuickText
	IntentSwitchQuick
	IntentResumeGuided
	IntentStartNew
	IntentReset
	IntentSubmit
	IntentRetry
	IntentStatus
	IntentOptions // list the options of the current meal type
	IntentHelp
	IntentQuit
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentNext:
		return "next"
	case IntentPrevious:
		return "previous"
	case IntentGoTo:
		return "goto"
	case IntentSetField:
		return "set_field"
	case IntentQuickText:
		return "quick_text"
	case IntentSwitchQuick:
		return "switch_quick"
	case IntentResumeGuided:
		return "resume_guided"
	case IntentStartNew:
		return "start_new"
	case IntentReset:
		return "reset"
	case IntentSubmit:
		return "submit"
	case IntentRetry:
		return "retry"
	case IntentStatus:
		return "status"
	case IntentOptions:
		return "options"
	case IntentHelp:
		return "help"
	case IntentQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Intent represents a parsed user action.
type Intent struct {
	Type    IntentType
	Field   Field  // for IntentSetField
	Step    Step   // for IntentGoTo
	Payload string // raw value or free text
}

// intentNames maps snake_case names to IntentType values.
var intentNames = map[string]IntentType{
	"next":          IntentNext,
	"previous":      IntentPrevious,
	"goto":          IntentGoTo,
	"set_field":     IntentSetField,
	"quick_text":    IntentQuickText,
	"switch_quick":  IntentSwitchQuick,
	"resume_guided": IntentResumeGuided,
	"start_new":     IntentStartNew,
	"reset":         IntentReset,
	"submit":        IntentSubmit,
	"retry":         IntentRetry,
	"status":        IntentStatus,
	"options":       IntentOptions,
	"help":          IntentHelp,
	"quit":          IntentQuit,
	"unknown":       IntentUnknown,
}

// IntentFromString converts a snake_case intent name to an IntentType.
// Returns IntentUnknown for unrecognized names.
func IntentFromString(name string) IntentType {
	if t, ok := intentNames[name]; ok {
		return t
	}
	return IntentUnknown
}
