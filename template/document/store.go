package document

import (
	"sync"

	"github.com/tliron/commonlog"
)

// Store holds the live buffer for every open document, keyed by URI.
// It is the single owner of raw text: other components query it by
// identifier instead of retaining copies. Construct one per server
// (or per test scenario); there is no package-level instance.
type Store struct {
	mu   sync.RWMutex
	log  commonlog.Logger
	docs map[string]*Document
}

func NewStore() *Store {
	return &Store{
		log:  commonlog.GetLogger("cfnls.document"),
		docs: make(map[string]*Document),
	}
}

// Open registers a document with its full text. Reopening an already
// open URI replaces it.
func (s *Store) Open(uri, languageID, text string, version int32) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := newDocument(uri, languageID, text, version)
	s.docs[uri] = doc
	return doc
}

// Apply applies a change batch at the given version. Edits whose
// version regresses are ignored: the protocol guarantees monotonically
// increasing versions, so a regression means a stale notification.
// Returns the resulting document, or nil when the URI is not open.
func (s *Store) Apply(uri string, version int32, changes []Change) *Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		s.log.Warningf("change for unopened document %s", uri)
		return nil
	}
	if version < doc.version {
		s.log.Warningf("ignoring stale edit for %s: version %d < %d", uri, version, doc.version)
		return doc
	}
	next := doc.withChanges(changes, version)
	s.docs[uri] = next
	return next
}

func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

// Get returns the current snapshot for uri, or nil.
func (s *Store) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}
