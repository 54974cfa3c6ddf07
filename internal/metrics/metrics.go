// Package metrics keeps lightweight process counters for the engine and the
// HTTP surface. Kept simple/thread-safe for use from services, middlewares and
// exposition.
package metrics

import (
	"sync"
	"sync/atomic"
)

// Execution outcomes tracked per run.
const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeNotFound = "not_found"
)

var (
	translatorFallbacks uint64

	execMu     sync.Mutex
	execTotal  uint64
	execByKind map[string]uint64

	rlMu       sync.Mutex
	rlTotal    uint64
	rlByPrefix map[string]uint64
)

// IncTranslatorFallback counts one translation that took the fallback path.
func IncTranslatorFallback() {
	atomic.AddUint64(&translatorFallbacks, 1)
}

// TranslatorFallbacks returns the fallback count.
func TranslatorFallbacks() uint64 {
	return atomic.LoadUint64(&translatorFallbacks)
}

// IncExecution counts one execution run with the given outcome.
func IncExecution(outcome string) {
	atomic.AddUint64(&execTotal, 1)
	execMu.Lock()
	if execByKind == nil {
		execByKind = make(map[string]uint64)
	}
	execByKind[outcome]++
	execMu.Unlock()
}

// ExecutionSnapshot returns a copy of the execution counters.
func ExecutionSnapshot() (total uint64, by map[string]uint64) {
	total = atomic.LoadUint64(&execTotal)
	execMu.Lock()
	defer execMu.Unlock()
	by = make(map[string]uint64, len(execByKind))
	for k, v := range execByKind {
		by[k] = v
	}
	return total, by
}

// IncRateLimitDrop increments drop counters for the given prefix.
// Use prefix "global" for global limiter rejections.
func IncRateLimitDrop(prefix string) {
	if prefix == "" {
		prefix = "global"
	}
	atomic.AddUint64(&rlTotal, 1)
	rlMu.Lock()
	if rlByPrefix == nil {
		rlByPrefix = make(map[string]uint64)
	}
	rlByPrefix[prefix]++
	rlMu.Unlock()
}

// RateLimitSnapshot returns a copy of the current drop counters.
func RateLimitSnapshot() (total uint64, by map[string]uint64) {
	total = atomic.LoadUint64(&rlTotal)
	rlMu.Lock()
	defer rlMu.Unlock()
	by = make(map[string]uint64, len(rlByPrefix))
	for k, v := range rlByPrefix {
		by[k] = v
	}
	return total, by
}
