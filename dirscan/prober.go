package dirscan

import (
	"net/url"
	"strings"
	"sync"

	"github.com/arrester/endabyss/frontier"
	"github.com/arrester/endabyss/model"
)

// Prober expands every discovered directory prefix against a wordlist,
// pushing HEAD probe Tasks onto the shared Frontier. It is a no-op when the
// wordlist is empty (spec boundary: "wordlist with 0 entries -> no-op").
type Prober struct {
	wordlist []string
	fr       *frontier.Frontier

	mu         sync.Mutex
	seenPrefix map[string]bool
}

// New builds a Prober bound to fr. A nil/empty wordlist disables probing.
func New(wordlist []string, fr *frontier.Frontier) *Prober {
	return &Prober{wordlist: wordlist, fr: fr, seenPrefix: make(map[string]bool)}
}

// Enabled reports whether this Prober has any words to expand.
func (p *Prober) Enabled() bool {
	return len(p.wordlist) > 0
}

// SeedFromURL inspects candidateURL; if it is a directory-like prefix
// (path ends in "/") not yet expanded, it enqueues one HEAD Task per
// wordlist entry.
func (p *Prober) SeedFromURL(candidateURL string, target *model.Target, depth int) {
	if !p.Enabled() {
		return
	}
	prefix, ok := directoryPrefix(candidateURL)
	if !ok {
		return
	}

	p.mu.Lock()
	if p.seenPrefix[prefix] {
		p.mu.Unlock()
		return
	}
	p.seenPrefix[prefix] = true
	p.mu.Unlock()

	for _, w := range p.wordlist {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		p.fr.Push(model.Task{
			URL: prefix + w, Method: "HEAD", Depth: depth, Target: target,
			DirProbe: true, Source: model.SourceDirscan,
		})
	}
}

func directoryPrefix(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !strings.HasSuffix(u.Path, "/") {
		return "", false
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), true
}
