package core

// Reporter receives asynchronous status lines (no trailing newline). The
// serial transport, the simulator, and the websocket hub all plug in here.
// Components hold their own Reporter rather than sharing a global sink.
type Reporter func(line string)

// MultiReporter fans one status line out to several sinks.
func MultiReporter(sinks ...Reporter) Reporter {
	return func(line string) {
		for _, s := range sinks {
			if s != nil {
				s(line)
			}
		}
	}
}
