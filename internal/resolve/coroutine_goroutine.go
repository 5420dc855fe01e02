package resolve

// Yield is handed to a goroutine-backed coroutine body (see
// [NewGoroutineCoroutine]), letting it write ordinary, synchronous-looking
// code: call Yield with a mixed value, and get back its resolved value, or a
// panic carrying the resolution failure.
type Yield func(v Value) Value

// NewGoroutineCoroutine adapts an ordinary blocking function into a
// [Coroutine] by running it on its own goroutine, synchronizing each
// yield/resume over a pair of unbuffered channels - the same
// goroutine-plus-channel handshake the teacher's Loop.Promisify uses to
// bridge a blocking goroutine back onto synchronous settlement. This spares
// callers from implementing the Next/Throw state machine by hand when a
// plain function suffices.
func NewGoroutineCoroutine(body func(yield Yield) Value) Coroutine {
	c := &goroutineCoroutine{
		toBody:   make(chan toBodyMsg),
		fromBody: make(chan fromBodyMsg),
	}
	go c.run(body)
	return c
}

type toBodyMsg struct {
	resume   Value
	hasThrow bool
	reason   any
}

type fromBodyMsg struct {
	yield  Value
	final  Value
	done   bool
	failed bool
	reason any
}

func (m fromBodyMsg) step() (Step, bool, any) {
	if m.failed {
		return Step{}, true, m.reason
	}
	if m.done {
		return Step{Final: m.final, Done: true}, false, nil
	}
	return Step{Yield: m.yield}, false, nil
}

type goroutineCoroutine struct {
	started  bool
	toBody   chan toBodyMsg
	fromBody chan fromBodyMsg
}

var _ Coroutine = (*goroutineCoroutine)(nil)

func (c *goroutineCoroutine) Next(resolved Value) Step {
	if c.started {
		c.toBody <- toBodyMsg{resume: resolved}
	}
	c.started = true
	return toStepPanicking(<-c.fromBody)
}

func (c *goroutineCoroutine) Throw(err any) Step {
	c.started = true
	c.toBody <- toBodyMsg{hasThrow: true, reason: err}
	return toStepPanicking(<-c.fromBody)
}

// toStepPanicking converts a fromBodyMsg into a Step, panicking for the
// failed case so it surfaces via stepCoroutine's recover, uniformly with a
// user Coroutine implementation that panics directly.
func toStepPanicking(m fromBodyMsg) Step {
	step, failed, reason := m.step()
	if failed {
		panic(reason)
	}
	return step
}

func (c *goroutineCoroutine) run(body func(Yield) Value) {
	defer func() {
		if r := recover(); r != nil {
			c.fromBody <- fromBodyMsg{failed: true, reason: recoveredToReason(r)}
		}
	}()

	final := body(c.yield)
	c.fromBody <- fromBodyMsg{done: true, final: final}
}

func (c *goroutineCoroutine) yield(v Value) Value {
	c.fromBody <- fromBodyMsg{yield: v}
	msg := <-c.toBody
	if msg.hasThrow {
		panic(msg.reason)
	}
	return msg.resume
}
