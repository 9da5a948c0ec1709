package inspector

import "github.com/papercomputeco/spool/pkg/breakpoint"

// PauseChannel places a manual breakpoint on a channel.
func (i *Inspector) PauseChannel(name string) (breakpoint.Breakpoint, error) {
	return i.registry.PauseChannel(name)
}

// ResumeChannel continues every breakpoint on a channel and drains its
// buffer in arrival order.
func (i *Inspector) ResumeChannel(name string) error {
	return i.registry.ResumeChannel(name)
}

// ContinueOne continues a single breakpoint.
func (i *Inspector) ContinueOne(id string) error {
	return i.registry.ContinueOne(id)
}

// ContinueAll continues every breakpoint and returns how many were active.
func (i *Inspector) ContinueAll() (int, error) {
	return i.registry.ContinueAll()
}

// Abandon drops a channel's breakpoints and discards its buffered events.
func (i *Inspector) Abandon(name string) (int, error) {
	return i.registry.Abandon(name)
}
