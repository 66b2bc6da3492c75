package gradebook

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"canvas-access/internal/canvas"
)

// Comparator is one of == != < <= > >=.
type Comparator string

const (
	Equal          Comparator = "=="
	NotEqual       Comparator = "!="
	Less           Comparator = "<"
	LessOrEqual    Comparator = "<="
	Greater        Comparator = ">"
	GreaterOrEqual Comparator = ">="
)

// ParseComparator returns the comparator written as s, anything unrecognized is
// treated as Equal.
func ParseComparator(s string) Comparator {
	switch c := Comparator(s); c {
	case Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual:
		return c
	}
	return Equal
}

// Condition tests one attribute of a submission against a value.
type Condition struct {
	Attribute  string
	Comparator Comparator
	Value      any
	// CountMissing makes submissions without the attribute (or with a null value, or
	// that were never submitted) match.
	CountMissing bool
}

// Match reports whether a submission meets the condition, a nil submission is treated
// as one that lacks the attribute.
func (c Condition) Match(submission *canvas.Submission) bool {
	if submission == nil {
		return c.CountMissing
	}
	value, ok := submission.Attr(c.Attribute)
	if !ok {
		return c.CountMissing
	}
	value = canvas.Normalize(value)
	if value == nil {
		return c.CountMissing
	}
	return compare(ParseComparator(string(c.Comparator)), value, canvas.Normalize(c.Value))
}

func compare(comparator Comparator, left, right any) bool {
	order, comparable := ordering(left, right)
	switch comparator {
	case NotEqual:
		return !comparable || order != 0
	case Less:
		return comparable && order < 0
	case LessOrEqual:
		return comparable && order <= 0
	case Greater:
		return comparable && order > 0
	case GreaterOrEqual:
		return comparable && order >= 0
	}
	return comparable && order == 0
}

// ordering compares two normalized values of the same type. Booleans only support
// equality, which is reported as order 0 or 1.
func ordering(left, right any) (int, bool) {
	switch l := left.(type) {
	case float64:
		r, ok := right.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case l < r:
			return -1, true
		case l > r:
			return 1, true
		}
		return 0, true
	case string:
		r, ok := right.(string)
		if !ok {
			return 0, false
		}
		switch {
		case l < r:
			return -1, true
		case l > r:
			return 1, true
		}
		return 0, true
	case time.Time:
		r, ok := right.(time.Time)
		if !ok {
			return 0, false
		}
		return l.Compare(r), true
	case bool:
		r, ok := right.(bool)
		if !ok {
			return 0, false
		}
		if l == r {
			return 0, true
		}
		return 1, true
	}
	return 0, false
}

// Unpartitioned is the partition name of counts that were not split by cluster.
const Unpartitioned = "all"

// Tally holds the ids of the assignments that matched a query for every student,
// partitioned by cluster.
type Tally struct {
	// Partitions lists the partition names in the order they were queried.
	Partitions []string
	// Matches is partition -> student id -> matching assignment ids (ascending).
	Matches map[string]map[int64][]int64
}

// Count returns the number of matching assignments of a student in a partition.
func (t Tally) Count(partition string, studentId int64) int {
	return len(t.Matches[partition][studentId])
}

// Counts returns the number of matching assignments of every student in a partition.
func (t Tally) Counts(partition string) map[int64]int {
	out := map[int64]int{}
	for studentId, ids := range t.Matches[partition] {
		out[studentId] = len(ids)
	}
	return out
}

// Total returns the number of matching assignments of a student across partitions.
func (t Tally) Total(studentId int64) int {
	total := 0
	for _, partition := range t.Partitions {
		total += t.Count(partition, studentId)
	}
	return total
}

func (b *GradingBundle) tally(clusters []AssignmentCluster, match func(*canvas.Submission) bool) Tally {
	if len(clusters) == 0 {
		clusters = []AssignmentCluster{{Name: Unpartitioned, AssignmentIDs: b.AssignmentIDs}}
	}

	t := Tally{Matches: map[string]map[int64][]int64{}}
	for _, cluster := range clusters {
		t.Partitions = append(t.Partitions, cluster.Name)

		perStudent := make(map[int64][]int64, len(b.StudentIDs))
		for _, studentId := range b.StudentIDs {
			ids := []int64{}
			for _, assignmentId := range cluster.AssignmentIDs {
				submission, ok := b.Submission(studentId, assignmentId)
				if !ok {
					continue
				}
				if match(submission) {
					ids = append(ids, assignmentId)
				}
			}
			slices.Sort(ids)
			perStudent[studentId] = ids
		}
		t.Matches[cluster.Name] = perStudent
	}
	return t
}

// CountByCondition counts, for every student, the submissions that meet the condition.
// The result is flat (a single Unpartitioned partition) without clusters and split by
// cluster name otherwise. It is stored in GradeData under name.
func (b *GradingBundle) CountByCondition(name string, condition Condition, clusters ...AssignmentCluster) Tally {
	t := b.tally(clusters, condition.Match)
	b.setGradeData(name, t)
	return t
}

// CountInCluster counts, for every student, the submissions of a cluster that meet the
// condition.
func (b *GradingBundle) CountInCluster(cluster AssignmentCluster, condition Condition) map[int64]int {
	return b.tally([]AssignmentCluster{cluster}, condition.Match).Counts(cluster.Name)
}

// GetByCondition returns, for every student, the submissions of a cluster that meet
// the condition keyed by assignment id. Never submitted assignments match with a nil
// submission when the condition counts missing values.
func (b *GradingBundle) GetByCondition(cluster AssignmentCluster, condition Condition) map[int64]map[int64]*canvas.Submission {
	t := b.tally([]AssignmentCluster{cluster}, condition.Match)
	out := make(map[int64]map[int64]*canvas.Submission, len(b.StudentIDs))
	for studentId, ids := range t.Matches[cluster.Name] {
		submissions := make(map[int64]*canvas.Submission, len(ids))
		for _, id := range ids {
			submissions[id], _ = b.Submission(studentId, id)
		}
		out[studentId] = submissions
	}
	return out
}

// Group names and weights an assignment group when clustering by group.
type Group struct {
	Name   string
	Weight *float64
}

// GroupClusters partitions the bundle's assignments by assignment group. Assignments
// outside of any group fall into group 0. Clusters take the name and weight of their
// entry in groups, groups without one are named after their id and left unweighted.
// Every entry of groups gets a cluster, even when none of the bundle's assignments
// belong to it.
func (b *GradingBundle) GroupClusters(groups map[int64]Group) []AssignmentCluster {
	var groupIds []int64
	members := map[int64][]int64{}
	for groupId := range groups {
		groupIds = append(groupIds, groupId)
		members[groupId] = []int64{}
	}
	for _, assignmentId := range b.AssignmentIDs {
		var groupId int64
		if id := b.Assignments[assignmentId].AssignmentGroupID; id != nil {
			groupId = *id
		}
		if _, ok := members[groupId]; !ok {
			groupIds = append(groupIds, groupId)
		}
		members[groupId] = append(members[groupId], assignmentId)
	}
	slices.Sort(groupIds)

	clusters := make([]AssignmentCluster, len(groupIds))
	for i, groupId := range groupIds {
		cluster := AssignmentCluster{
			Name:          strconv.FormatInt(groupId, 10),
			AssignmentIDs: members[groupId],
		}
		if group, ok := groups[groupId]; ok {
			cluster.Name = group.Name
			cluster.Weight = group.Weight
		}
		clusters[i] = cluster
	}
	return clusters
}

const zeroAssignments = "zero_assignments"

// CountZeros counts the submitted assignments scored 0 per assignment group and stores
// the result under "zero_assignments".
func (b *GradingBundle) CountZeros() Tally {
	return b.CountByCondition(
		zeroAssignments,
		Condition{Attribute: "score", Comparator: Equal, Value: 0},
		b.GroupClusters(nil)...,
	)
}

// CountPercentThreshold counts the graded submissions whose score ratio (0 to 1) is at
// most the threshold (below) or at least it (!below), per assignment group. Assignments
// worth no points are skipped. The result is stored under name.
func (b *GradingBundle) CountPercentThreshold(name string, threshold float64, below bool) Tally {
	t := b.tally(b.GroupClusters(nil), func(submission *canvas.Submission) bool {
		if submission == nil || submission.Score == nil {
			return false
		}
		pointsPossible, ok := submission.Float("assignment_points_possible")
		if !ok || pointsPossible <= 0 {
			return false
		}
		ratio := *submission.Score / pointsPossible
		if below {
			return ratio <= threshold
		}
		return ratio >= threshold
	})
	b.setGradeData(name, t)
	return t
}

func (t Tally) String() string {
	return fmt.Sprintf("Tally%v", t.Matches)
}
