package game

// pointSegmentDistance returns the shortest distance from point p to the
// segment a-b.
func pointSegmentDistance(p, a, b Vec2) float64 {
	ab := b.Minus(a)
	lenSq := ab.MagnitudeSquared()
	if lenSq == 0 {
		return p.DistanceTo(a)
	}
	t := p.Minus(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := a.Plus(ab.Times(t))
	return p.DistanceTo(closest)
}

// segmentClear reports whether the segment a-b stays at least clearance
// away from every obstacle disc. Discs listed in ignore are skipped.
func segmentClear(a, b Vec2, obstacles []*Disc, clearance float64, ignore ...int) bool {
	for _, o := range obstacles {
		skip := false
		for _, id := range ignore {
			if o.ID == id {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if pointSegmentDistance(o.Position, a, b) < clearance+o.Radius {
			return false
		}
	}
	return true
}
