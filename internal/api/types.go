package api

// Assistant identifies one of the branded backend personas. Each persona is
// served by its own chat route but shares the client's error and usage-limit
// handling.
type Assistant string

const (
	AssistantGeneral    Assistant = "sagealpha"
	AssistantCompliance Assistant = "compliance"
	AssistantDefender   Assistant = "defender"
	AssistantChatter    Assistant = "chatter"
)

// ChatPath returns the backend route serving this persona.
func (a Assistant) ChatPath() string {
	switch a {
	case AssistantCompliance:
		return "/compliance/chat"
	case AssistantDefender:
		return "/defender/query"
	case AssistantChatter:
		return "/api/market-chatter"
	default:
		return "/chat"
	}
}

// Valid reports whether the persona name is one the backend serves.
func (a Assistant) Valid() bool {
	switch a {
	case AssistantGeneral, AssistantCompliance, AssistantDefender, AssistantChatter:
		return true
	}
	return false
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	TopK      int    `json:"top_k"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type reportRequest struct {
	CompanyName string `json:"company_name"`
	SessionID   string `json:"session_id,omitempty"`
}

type intelligenceRequest struct {
	Ticker string `json:"ticker"`
}

type sendEmailRequest struct {
	Email    string `json:"email"`
	ReportID string `json:"reportId"`
}

// chatResponse is the superset of fields the chat-style routes return.
// The general route answers in `response`, compliance in `reply` and the
// defender persona in `answer`.
type chatResponse struct {
	Response  string `json:"response"`
	Reply     string `json:"reply"`
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// errorResponse is the common error body shape across routes.
type errorResponse struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ChatResult is a resolved chat or report round-trip.
type ChatResult struct {
	Response  string
	SessionID string
}

// Upload describes one successfully uploaded attachment.
type Upload struct {
	URL      string `json:"url"`
	DocID    string `json:"doc_id"`
	Filename string `json:"filename"`
}

// Attachment is the attachment descriptor carried on transcript messages.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	MIMEType string `json:"type"`
}

// Message is one transcript entry as the backend stores it, used by the
// session and shared-chat routes.
type Message struct {
	Role        string       `json:"role"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// UsageStatus reports the caller's metered usage per product area.
type UsageStatus struct {
	Chat struct {
		UsageCount int `json:"usageCount"`
	} `json:"chat"`
	Market struct {
		UsageCount int `json:"usageCount"`
	} `json:"market"`
}

// SharedChat is the read-only transcript behind a share link.
type SharedChat struct {
	Title     string    `json:"title"`
	CreatedAt string    `json:"created_at"`
	Messages  []Message `json:"messages"`
}

type sessionResponse struct {
	Session struct {
		Messages []Message `json:"messages"`
	} `json:"session"`
}

type intelligenceEnvelope struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Data    *Intelligence `json:"data"`
}

// Intelligence is the structured market-intelligence payload. It is
// display-only: the client renders it as-is and never mutates it.
type Intelligence struct {
	Ticker       string `json:"ticker"`
	AnalysisDate string `json:"analysisDate"`
	Sentiment    struct {
		Label   string  `json:"label"`
		Score   float64 `json:"score"`
		Summary string  `json:"summary"`
	} `json:"sentiment"`
	BullCase struct {
		Summary string   `json:"summary"`
		Signals []string `json:"signals"`
	} `json:"bullCase"`
	BearCase struct {
		Summary string   `json:"summary"`
		Risks   []string `json:"risks"`
	} `json:"bearCase"`
	RiskAssessment struct {
		OverallRisk string `json:"overallRisk"`
		Suitability *struct {
			IsMatch     bool   `json:"isMatch"`
			Explanation string `json:"explanation"`
			Warning     string `json:"warning"`
		} `json:"suitability"`
	} `json:"riskAssessment"`
	DataQuality struct {
		FinancialsAvailable bool     `json:"financialsAvailable"`
		Reason              string   `json:"reason"`
		Suggestions         []string `json:"suggestions"`
	} `json:"dataQuality"`
	Metadata struct {
		ProcessingTimeMs   int64 `json:"processingTimeMs"`
		IngestionTriggered bool  `json:"ingestionTriggered"`
	} `json:"metadata"`
}
