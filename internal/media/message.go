package media

// MessageKind classifies bus messages the session layer cares about.
type MessageKind int

const (
	MessageOther MessageKind = iota
	MessageError
	MessageEOS
	// MessageApplication is a message posted by the application itself,
	// usually from a non-UI thread.
	MessageApplication
	// MessageForwardedEOS is an end-of-stream a child bin posted and the
	// pipeline forwarded because message-forward is enabled.
	MessageForwardedEOS
	MessageStateChanged
)

func (k MessageKind) String() string {
	switch k {
	case MessageError:
		return "error"
	case MessageEOS:
		return "eos"
	case MessageApplication:
		return "application"
	case MessageForwardedEOS:
		return "forwarded-eos"
	case MessageStateChanged:
		return "state-changed"
	default:
		return "other"
	}
}

// Message is an engine-neutral bus message.
type Message struct {
	Kind MessageKind
	// Source is the name of the posting element. For forwarded messages it
	// is the name of the child that posted the original message.
	Source string
	// Name is the structure name of application messages.
	Name string
	// Fields holds the string fields of application messages.
	Fields map[string]string
	// Text and Debug describe errors.
	Text  string
	Debug string
	// State is the new state of a state-changed message.
	State State
}

// NewApplicationMessage builds an application message with string fields.
func NewApplicationMessage(name string, fields map[string]string) Message {
	return Message{Kind: MessageApplication, Name: name, Fields: fields}
}

// Field returns a string field of an application message.
func (m Message) Field(key string) string {
	if m.Fields == nil {
		return ""
	}
	return m.Fields[key]
}
