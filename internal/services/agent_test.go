package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/vegcafe/cafe-voice-backend/internal/llm"
	"github.com/vegcafe/cafe-voice-backend/internal/models"
	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// replyProvider always returns the same raw text
type replyProvider struct{ reply string }

func (p replyProvider) Name() string { return "canned" }
func (p replyProvider) Complete(ctx context.Context, system string, history []llm.Message, prompt string) (string, error) {
	return p.reply, nil
}

// timeoutProvider blocks until the context deadline fires
type timeoutProvider struct{}

func (timeoutProvider) Name() string { return "slow" }
func (timeoutProvider) Complete(ctx context.Context, system string, history []llm.Message, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"prose around", `Sure! {"a":{"b":2}} hope that helps`, `{"a":{"b":2}}`, true},
		{"brace in string", `{"text":"use } carefully"}`, `{"text":"use } carefully"}`, true},
		{"escaped quote", `{"text":"say \"hi}\" now"}`, `{"text":"say \"hi}\" now"}`, true},
		{"no object", "sorry, I cannot help", "", false},
		{"unbalanced", `{"a":1`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSON(tt.raw)
			if ok != tt.ok || got != tt.want {
				t.Errorf("extractJSON(%q) = %q, %v; want %q, %v", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNormalizeItemFallbackNaming(t *testing.T) {
	tests := []struct {
		name string
		item rawCartItem
		want string
	}{
		{"name present wins", rawCartItem{Name: "Paneer Tikka", NameEn: "Other"}, "Paneer Tikka"},
		{"name_en fallback", rawCartItem{NameEn: "Paneer Tikka"}, "Paneer Tikka"},
		{"name_hi fallback", rawCartItem{Name: "", NameEn: "", NameHi: "Masala Dosa"}, "Masala Dosa"},
		{"all empty", rawCartItem{}, "Unknown Item"},
		{"whitespace name falls through", rawCartItem{Name: "  ", NameEn: "Chai"}, "Chai"},
		{"non-string name falls through", rawCartItem{Name: 42.0, NameEn: "Lassi"}, "Lassi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeItem(tt.item)
			if got.Name != tt.want {
				t.Errorf("normalizeItem(%+v).Name = %q, want %q", tt.item, got.Name, tt.want)
			}
		})
	}
}

func TestNormalizeItemDefaults(t *testing.T) {
	got := normalizeItem(rawCartItem{Name: "Chai"})
	if got.Price != 0 {
		t.Errorf("missing price should default to 0, got %v", got.Price)
	}
	if got.Quantity != 1 {
		t.Errorf("missing quantity should default to 1, got %v", got.Quantity)
	}

	got = normalizeItem(rawCartItem{Name: "Chai", Price: "not-a-number", Quantity: "many"})
	if got.Price != 0 || got.Quantity != 1 {
		t.Errorf("non-numeric fields should coerce to 0/1, got price=%v qty=%v", got.Price, got.Quantity)
	}

	got = normalizeItem(rawCartItem{Name: "Chai", Price: "40.5", Quantity: 2.0})
	if got.Price != 40.5 || got.Quantity != 2 {
		t.Errorf("numeric strings and floats should coerce, got price=%v qty=%v", got.Price, got.Quantity)
	}
}

func TestNormalizeItemsShapes(t *testing.T) {
	if _, ok := normalizeItems(nil); ok {
		t.Error("absent items should not be treated as a list")
	}
	if _, ok := normalizeItems(json.RawMessage(`"a string"`)); ok {
		t.Error("non-list items should not be treated as a list")
	}

	items, ok := normalizeItems(json.RawMessage(`[]`))
	if !ok || len(items) != 0 {
		t.Errorf("empty list should be authoritative, got %v %v", items, ok)
	}

	items, ok = normalizeItems(json.RawMessage(`[{"name_en":"Dosa","price":120,"quantity":2}, "junk"]`))
	if !ok || len(items) != 1 || items[0].Name != "Dosa" {
		t.Errorf("object entries should normalize and junk drop, got %+v", items)
	}
}

func newAgentFixture(t *testing.T, reply string) (*CafeAgent, *storage.MemoryStore, *models.ChatSession) {
	t.Helper()
	store := storage.NewMemoryStore()
	session, err := store.CreateSession("9876543210")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	agent := NewCafeAgent(replyProvider{reply: reply}, store, time.Second)
	return agent, store, session
}

func seedCart(t *testing.T, store *storage.MemoryStore, session *models.ChatSession, cart models.CartItems) {
	t.Helper()
	if err := store.UpdateSessionConversation(session.ID, session.History, cart, time.Now()); err != nil {
		t.Fatalf("seeding cart: %v", err)
	}
	session.CartItems = cart
}

func TestRespondWholesaleReplace(t *testing.T) {
	reply := `{"voice_text":"Added.","display_text":"3 items","action":"NONE",
		"items":[{"name":"A","price":10,"quantity":1},{"name":"B","price":20,"quantity":1},{"name":"C","price":30,"quantity":1}]}`
	agent, store, session := newAgentFixture(t, reply)
	seedCart(t, store, session, models.CartItems{{Name: "A", Price: 10, Quantity: 1}, {Name: "B", Price: 20, Quantity: 1}})

	result, err := agent.Respond(context.Background(), session, "Asha", "- A: Rs.10", "", "add C")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	want := []string{"A", "B", "C"}
	if len(result.Items) != len(want) {
		t.Fatalf("got %d items, want %d", len(result.Items), len(want))
	}
	for i, name := range want {
		if result.Items[i].Name != name {
			t.Errorf("item %d = %q, want %q", i, result.Items[i].Name, name)
		}
	}

	// Cart is replaced wholesale in the store too
	persisted, err := store.GetActiveSession("9876543210")
	if err != nil {
		t.Fatalf("GetActiveSession: %v", err)
	}
	if len(persisted.CartItems) != 3 {
		t.Errorf("persisted cart has %d items, want 3", len(persisted.CartItems))
	}
	if len(persisted.History) != 2 {
		t.Errorf("history should gain user+model turns, got %d", len(persisted.History))
	}
}

func TestRespondParseFailureLeavesStateUntouched(t *testing.T) {
	agent, store, session := newAgentFixture(t, "sorry, kitchen is busy, no json here")
	seedCart(t, store, session, models.CartItems{{Name: "Paneer Tikka", Price: 250, Quantity: 1}})

	result, err := agent.Respond(context.Background(), session, "Asha", "", "", "what's in my cart?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if result.Action != models.ActionNone {
		t.Errorf("action = %q, want NONE", result.Action)
	}
	if result.DisplayText != "Sync Error" {
		t.Errorf("display = %q, want Sync Error", result.DisplayText)
	}
	if len(result.Items) != 1 || result.Items[0].Name != "Paneer Tikka" {
		t.Errorf("degraded reply must echo persisted cart, got %+v", result.Items)
	}

	persisted, _ := store.GetActiveSession("9876543210")
	if len(persisted.History) != 0 {
		t.Error("parse failure must not persist history")
	}
	if len(persisted.CartItems) != 1 {
		t.Error("parse failure must not touch persisted cart")
	}
}

func TestRespondItemsMissingFallsBackToPersistedCart(t *testing.T) {
	reply := `{"voice_text":"We open at 9.","display_text":"Hours","action":"NONE"}`
	agent, store, session := newAgentFixture(t, reply)
	seedCart(t, store, session, models.CartItems{{Name: "Chai", Price: 40, Quantity: 2}})

	result, err := agent.Respond(context.Background(), session, "Asha", "", "", "when do you open?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if len(result.Items) != 1 || result.Items[0].Name != "Chai" {
		t.Errorf("missing items field should keep persisted cart, got %+v", result.Items)
	}

	// History still persists on a successful parse
	persisted, _ := store.GetActiveSession("9876543210")
	if len(persisted.History) != 2 {
		t.Errorf("history should persist on successful parse, got %d turns", len(persisted.History))
	}
	if len(persisted.CartItems) != 1 || persisted.CartItems[0].Name != "Chai" {
		t.Errorf("persisted cart should be unchanged, got %+v", persisted.CartItems)
	}
}

func TestRespondTimeoutGetsDegradedReply(t *testing.T) {
	store := storage.NewMemoryStore()
	session, _ := store.CreateSession("9876543210")
	agent := NewCafeAgent(timeoutProvider{}, store, 10*time.Millisecond)

	result, err := agent.Respond(context.Background(), session, "Asha", "", "", "hello")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if result.DisplayText != "Sync Error" || result.Action != models.ActionNone {
		t.Errorf("timeout should yield the degraded reply, got %+v", result)
	}
}
