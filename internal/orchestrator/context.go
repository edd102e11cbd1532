package orchestrator

import (
	"github.com/saaswatch/saaswatch/internal/appconfig"
	"github.com/saaswatch/saaswatch/internal/poller"
)

// Execution is the append-only context accumulated through one workflow
// run. It is a value type: each stage derives a new value with its field
// set, and a field that is already set is never overwritten. That makes the
// append-only invariant structural rather than a convention later stages
// must remember.
type Execution struct {
	ID      string
	AppName string
	Config  *appconfig.AppConfig
	Poll    *poller.Result
}

// NewExecution seeds the context with the trigger payload.
func NewExecution(id, appName string) Execution {
	return Execution{ID: id, AppName: appName}
}

// WithConfig returns a copy with the config attached. A second call is a
// no-op: the first write wins.
func (e Execution) WithConfig(cfg *appconfig.AppConfig) Execution {
	if e.Config != nil {
		return e
	}
	e.Config = cfg
	return e
}

// WithPoll returns a copy with the poll result attached. A second call is
// a no-op: the first write wins.
func (e Execution) WithPoll(res *poller.Result) Execution {
	if e.Poll != nil {
		return e
	}
	e.Poll = res
	return e
}
