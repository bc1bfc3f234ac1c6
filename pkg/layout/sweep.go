package layout

// sweeper drives an improvement loop. Each iteration runs step and then
// measures score (lower is better). The loop stops after burnout
// consecutive iterations that fail to beat the best score by more than
// tolerance, when the score reaches zero, or after maxIterations. The best
// arrangement seen is restored on exit.
type sweeper struct {
	maxIterations int
	burnout       int
	tolerance     float64
}

// run returns the number of iterations performed and the best score.
func (s sweeper) run(u *unit, score func() float64, step func(iteration int)) (int, float64) {
	best := score()
	bestPos := u.positions()
	stale := 0
	iteration := 0
	for iteration < s.maxIterations && stale < s.burnout && best > 0 {
		step(iteration)
		iteration++
		if cur := score(); cur < best-s.tolerance {
			best = cur
			bestPos = u.positions()
			stale = 0
		} else {
			stale++
		}
	}
	u.restore(bestPos)
	return iteration, best
}
