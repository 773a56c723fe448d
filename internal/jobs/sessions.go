package jobs

import (
	"log"
	"time"

	"github.com/vegcafe/cafe-voice-backend/internal/storage"
)

// SessionJanitor deactivates chat sessions that have been idle past the TTL,
// so an abandoned table conversation does not haunt the customer's next visit.
type SessionJanitor struct {
	store    storage.Store
	idleTTL  time.Duration
	interval time.Duration
	stop     chan struct{}
	running  bool
}

// NewSessionJanitor creates the idle-session cleanup job
func NewSessionJanitor(store storage.Store, idleTTL time.Duration) *SessionJanitor {
	return &SessionJanitor{
		store:    store,
		idleTTL:  idleTTL,
		interval: 5 * time.Minute,
		stop:     make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (j *SessionJanitor) Start() {
	if j.running {
		log.Println("Session janitor already running")
		return
	}
	j.running = true
	log.Printf("Starting session janitor (idle TTL %v)", j.idleTTL)

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.sweep()
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop halts the sweep loop
func (j *SessionJanitor) Stop() {
	if !j.running {
		return
	}
	j.running = false
	close(j.stop)
	log.Println("Stopping session janitor...")
}

func (j *SessionJanitor) sweep() {
	idle, err := j.store.GetIdleSessions(time.Now().Add(-j.idleTTL))
	if err != nil {
		log.Printf("⚠️  Session sweep failed: %v", err)
		return
	}

	flushed := 0
	for _, session := range idle {
		if err := j.store.DeactivateSessions(session.PhoneNumber); err != nil {
			log.Printf("⚠️  Could not deactivate session for %s: %v", session.PhoneNumber, err)
			continue
		}
		flushed++
	}
	if flushed > 0 {
		log.Printf("🧹 Session janitor flushed %d idle session(s)", flushed)
	}
}
