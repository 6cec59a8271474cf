package taskqueue

import "remoteshell/internal/task"

// Select is the pure selection function: given the current Waiting set, it
// returns the next task to run, or nil if the set is empty. It never
// mutates its input.
//
// Rule 1 (Shell-first): the earliest-arrived waiting Shell task wins,
// regardless of any Program in the set.
// Rule 2 (SRTF over Programs): otherwise, the Program with minimum
// Remaining wins; ties broken by earliest ArrivalTime. If more than one
// task is waiting, a task with JustRan set is excluded from consideration
// unless it is the only candidate left.
func Select(waiting []*task.Task) *task.Task {
	if len(waiting) == 0 {
		return nil
	}

	if shell := earliestShell(waiting); shell != nil {
		return shell
	}

	if chosen := shortestRemaining(waiting, len(waiting) > 1); chosen != nil {
		return chosen
	}
	// Every remaining candidate was excluded by the anti-starvation filter
	// (can only happen if |W| > 1 and all are JustRan, e.g. exactly one
	// program remains JustRan with none other eligible): retry without it.
	return shortestRemaining(waiting, false)
}

func earliestShell(waiting []*task.Task) *task.Task {
	var best *task.Task
	for _, t := range waiting {
		if t.Kind != task.Shell {
			continue
		}
		if best == nil || t.ArrivalTime.Before(best.ArrivalTime) {
			best = t
		}
	}
	return best
}

func shortestRemaining(waiting []*task.Task, excludeJustRan bool) *task.Task {
	var best *task.Task
	for _, t := range waiting {
		if t.Kind != task.Program {
			continue
		}
		if excludeJustRan && t.JustRan {
			continue
		}
		if best == nil ||
			t.Remaining < best.Remaining ||
			(t.Remaining == best.Remaining && t.ArrivalTime.Before(best.ArrivalTime)) {
			best = t
		}
	}
	return best
}
