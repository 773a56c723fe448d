package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/vegcafe/cafe-voice-backend/internal/llm"
	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// GreetInput is the sentinel user input sent by the frontend on first load.
const GreetInput = "GREET_USER_INITIAL"

// CafeAgent reconciles each conversational turn: it drives the LLM with menu
// and cart context, then merges the model's proposed cart with the persisted
// one to produce the turn's authoritative state.
type CafeAgent struct {
	provider llm.Provider
	store    storage.Store
	timeout  time.Duration
}

// NewCafeAgent creates the conversation reconciler
func NewCafeAgent(provider llm.Provider, store storage.Store, timeout time.Duration) *CafeAgent {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CafeAgent{
		provider: provider,
		store:    store,
		timeout:  timeout,
	}
}

// TurnResult is the authoritative outcome of one turn
type TurnResult struct {
	VoiceText   string
	DisplayText string
	Action      string
	Items       []models.CartItem
}

// modelReply is the typed shape of the JSON the model is instructed to return.
// Items stays raw so "absent", "not a list", and "empty list" are distinguishable.
type modelReply struct {
	VoiceText   string          `json:"voice_text"`
	DisplayText string          `json:"display_text"`
	Action      string          `json:"action"`
	Items       json.RawMessage `json:"items"`
}

// Respond runs one turn for the given session. On a successful parse the new
// cart and the appended history are persisted; on any upstream failure the
// degraded reply is returned and no session state is touched.
func (a *CafeAgent) Respond(ctx context.Context, session *models.ChatSession, userName, menuContext, pendingOrderNote, userInput string) (*TurnResult, error) {
	persistedCart := []models.CartItem(session.CartItems)

	system := a.buildSystemInstruction(userName, persistedCart)
	prompt := a.buildPrompt(menuContext, persistedCart, pendingOrderNote, userInput)
	history := toProviderHistory(session.History)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	raw, err := a.provider.Complete(callCtx, system, history, prompt)
	if err != nil {
		// Timeouts and transport faults get the same user-facing fallback as a
		// parse failure, but are logged apart for operability.
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("⏱️  LLM call timed out after %v (%s)", a.timeout, a.provider.Name())
		} else {
			log.Printf("❌ LLM call failed (%s): %v", a.provider.Name(), err)
		}
		return degradedReply(persistedCart), nil
	}

	reply, err := parseModelReply(raw)
	if err != nil {
		log.Printf("❌ Agent parse error: %v", err)
		return degradedReply(persistedCart), nil
	}

	// Wholesale replace: a present list (even empty) is the new authoritative
	// cart; anything else falls back to the persisted cart.
	items, ok := normalizeItems(reply.Items)
	if !ok {
		items = persistedCart
	}

	now := time.Now()
	newHistory := append(append(models.Conversation{}, session.History...),
		models.Turn{Role: llm.RoleUser, Parts: []models.TurnPart{{Text: userInput}}},
		models.Turn{Role: llm.RoleModel, Parts: []models.TurnPart{{Text: raw}}},
	)
	if err := a.store.UpdateSessionConversation(session.ID, newHistory, models.CartItems(items), now); err != nil {
		return nil, fmt.Errorf("%w: updating session %d: %v", ErrPersistence, session.ID, err)
	}
	session.History = newHistory
	session.CartItems = models.CartItems(items)
	session.LastInteraction = now

	action := reply.Action
	if action == "" {
		action = models.ActionNone
	}

	return &TurnResult{
		VoiceText:   reply.VoiceText,
		DisplayText: reply.DisplayText,
		Action:      action,
		Items:       items,
	}, nil
}

func (a *CafeAgent) buildSystemInstruction(userName string, cart []models.CartItem) string {
	return fmt.Sprintf(
		"You are Alexa-Server, a professional Hinglish waiter at 'Veg Cafe'. "+
			"Customer: %s. Current Cart: %s. "+
			"If the input is '%s', you must say: 'Namaste %s! Welcome to Veg Cafe. Main aapki kya sewa kar sakta hoon?' "+
			"STRICT RULES:\n"+
			"1. ALWAYS return ONLY a JSON object.\n"+
			"2. The 'items' list must ALWAYS contain the FULL cart (existing + new items).\n"+
			"3. Use 'name' as the key for item names in the JSON items list.\n"+
			"4. Only set action='ORDER_PLACED' if user confirms the final summary.\n"+
			"5. If user asks a question, keep 'items' populated with current cart.",
		userName, cartSummary(cart), GreetInput, userName)
}

func (a *CafeAgent) buildPrompt(menuContext string, cart []models.CartItem, pendingOrderNote, userInput string) string {
	cartJSON, err := json.Marshal(cart)
	if err != nil {
		cartJSON = []byte("[]")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "MENU DATA: %s\n", menuContext)
	fmt.Fprintf(&sb, "CURRENT_DATABASE_CART: %s\n", cartJSON)
	if pendingOrderNote != "" {
		fmt.Fprintf(&sb, "PENDING_ORDER: %s\n", pendingOrderNote)
	}
	fmt.Fprintf(&sb, "USER_MESSAGE: %q\n\n", userInput)
	sb.WriteString(
		"RESPONSE FORMAT:\n" +
			"{\n" +
			"  \"voice_text\": \"natural Hinglish response\",\n" +
			"  \"display_text\": \"short summary\",\n" +
			"  \"action\": \"ORDER_PLACED\" or \"NONE\",\n" +
			"  \"items\": [{\"name\": \"standard name\", \"price\": 0, \"quantity\": 1}]\n" +
			"}")
	return sb.String()
}

func cartSummary(cart []models.CartItem) string {
	if len(cart) == 0 {
		return "Empty"
	}
	parts := make([]string, 0, len(cart))
	for _, item := range cart {
		parts = append(parts, fmt.Sprintf("%s (x%d)", item.Name, item.Quantity))
	}
	return strings.Join(parts, ", ")
}

func toProviderHistory(history models.Conversation) []llm.Message {
	msgs := make([]llm.Message, 0, len(history))
	for _, turn := range history {
		texts := make([]string, 0, len(turn.Parts))
		for _, p := range turn.Parts {
			texts = append(texts, p.Text)
		}
		msgs = append(msgs, llm.Message{Role: turn.Role, Text: strings.Join(texts, "\n")})
	}
	return msgs
}

// degradedReply is the fixed fallback used whenever the model's reply cannot
// be trusted. The persisted cart is echoed unchanged.
func degradedReply(cart []models.CartItem) *TurnResult {
	return &TurnResult{
		VoiceText:   "Technical glitch, please repeat.",
		DisplayText: "Sync Error",
		Action:      models.ActionNone,
		Items:       cart,
	}
}

func parseModelReply(raw string) (*modelReply, error) {
	span, ok := extractJSON(raw)
	if !ok {
		return nil, ErrUpstreamParse
	}
	var reply modelReply
	if err := json.Unmarshal([]byte(span), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamParse, err)
	}
	return &reply, nil
}

// extractJSON returns the first balanced {...} span in raw, honoring string
// literals and escapes so braces inside values do not end the span early.
func extractJSON(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// rawCartItem accepts whatever field types the model emits; coercion happens
// in normalizeItem.
type rawCartItem struct {
	Name     interface{} `json:"name"`
	NameEn   interface{} `json:"name_en"`
	NameHi   interface{} `json:"name_hi"`
	Price    interface{} `json:"price"`
	Quantity interface{} `json:"quantity"`
}

// normalizeItems returns (cart, true) when items is a JSON list, even an empty
// one. Absent or non-list items yields (nil, false) so the caller can fall
// back to the persisted cart. Elements that are not objects are dropped.
func normalizeItems(raw json.RawMessage) ([]models.CartItem, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, false
	}

	items := make([]models.CartItem, 0, len(elements))
	for _, el := range elements {
		var r rawCartItem
		if err := json.Unmarshal(el, &r); err != nil {
			continue
		}
		items = append(items, normalizeItem(r))
	}
	return items, true
}

// normalizeItem fills defaults: name falls back through name_en, name_hi and
// finally "Unknown Item"; price defaults to 0 and quantity to 1.
func normalizeItem(r rawCartItem) models.CartItem {
	name := asString(r.Name)
	if name == "" {
		name = asString(r.NameEn)
	}
	if name == "" {
		name = asString(r.NameHi)
	}
	if name == "" {
		name = "Unknown Item"
	}
	return models.CartItem{
		Name:     name,
		Price:    asFloat(r.Price, 0),
		Quantity: asQuantity(r.Quantity),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asFloat(v interface{}, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return fallback
}

func asQuantity(v interface{}) int {
	q := int(asFloat(v, 1))
	if q < 1 {
		return 1
	}
	return q
}
