package gradebook

// ClusterScore is the points and percent earned by every student in a cluster.
type ClusterScore struct {
	Name string
	// PointsPossible is the sum of the points possible of the cluster's assignments.
	PointsPossible float64
	// PossiblePercent is the percent of the "Points Possible" row, 100 unless the cluster
	// is worth no points.
	PossiblePercent float64

	Points  map[int64]float64
	Percent map[int64]float64
}

// ScoreByCluster sums the scores of every student over a cluster. Assignments without
// points possible add nothing to the total and ungraded or missing submissions add
// nothing to a student's points. The percent is 0 when the cluster is worth no points.
func (b *GradingBundle) ScoreByCluster(cluster AssignmentCluster) ClusterScore {
	score := ClusterScore{
		Name:    cluster.Name,
		Points:  make(map[int64]float64, len(b.StudentIDs)),
		Percent: make(map[int64]float64, len(b.StudentIDs)),
	}

	for _, assignmentId := range cluster.AssignmentIDs {
		assignment, ok := b.Assignments[assignmentId]
		if !ok || assignment.PointsPossible == nil {
			continue
		}
		score.PointsPossible += *assignment.PointsPossible
	}

	for _, studentId := range b.StudentIDs {
		earned := 0.0
		for _, assignmentId := range cluster.AssignmentIDs {
			submission, _ := b.Submission(studentId, assignmentId)
			if submission == nil || submission.Score == nil {
				continue
			}
			earned += *submission.Score
		}
		score.Points[studentId] = earned
		if score.PointsPossible == 0 {
			score.Percent[studentId] = 0
			continue
		}
		score.Percent[studentId] = earned / score.PointsPossible * 100
	}

	if score.PointsPossible != 0 {
		score.PossiblePercent = 100
	}
	return score
}

// FinalGrade is the overall grade of every student across a set of clusters.
type FinalGrade struct {
	// Weighted is true when the grade is the weighted average of cluster percents and
	// false when it is the ratio of all points earned to all points possible.
	Weighted bool
	// Defined is false when no grade can be computed because nothing is worth points.
	Defined bool

	PointsPossible float64
	Grades         map[int64]float64
}

// WeightClusters computes the final grade of every student. If every cluster with
// assignments carries a weight, the grade is the weighted average of the cluster
// percents. Otherwise it is total points earned over total points possible, which is
// undefined when there are no points possible.
func (b *GradingBundle) WeightClusters(clusters []AssignmentCluster) FinalGrade {
	scores := make([]ClusterScore, len(clusters))
	for i, cluster := range clusters {
		scores[i] = b.ScoreByCluster(cluster)
	}

	totalWeight := 0.0
	allWeighted := true
	for _, cluster := range clusters {
		if len(cluster.AssignmentIDs) == 0 {
			continue
		}
		if cluster.Weight == nil {
			allWeighted = false
			continue
		}
		totalWeight += *cluster.Weight
	}

	if allWeighted && totalWeight > 0 {
		final := FinalGrade{
			Weighted: true,
			Defined:  true,
			Grades:   make(map[int64]float64, len(b.StudentIDs)),
		}
		for i, cluster := range clusters {
			if len(cluster.AssignmentIDs) == 0 || cluster.Weight == nil {
				continue
			}
			weight := *cluster.Weight
			final.PointsPossible += weight * scores[i].PossiblePercent / totalWeight
			for _, studentId := range b.StudentIDs {
				final.Grades[studentId] += weight * scores[i].Percent[studentId] / totalWeight
			}
		}
		return final
	}

	totalPossible := 0.0
	for _, score := range scores {
		totalPossible += score.PointsPossible
	}
	if totalPossible == 0 {
		return FinalGrade{}
	}

	final := FinalGrade{
		Defined:        true,
		PointsPossible: 100,
		Grades:         make(map[int64]float64, len(b.StudentIDs)),
	}
	for _, studentId := range b.StudentIDs {
		earned := 0.0
		for _, score := range scores {
			earned += score.Points[studentId]
		}
		final.Grades[studentId] = earned / totalPossible * 100
	}
	return final
}
