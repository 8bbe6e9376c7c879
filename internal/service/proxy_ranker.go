package service

import (
	"sort"

	"github.com/noah-isme/sma-proxy-api/internal/dto"
	"github.com/noah-isme/sma-proxy-api/internal/models"
)

// rankByLoad orders candidates by regular classes on the day plus substitutions on the date.
// Equal loads keep roster order.
func rankByLoad(candidates []models.Teacher, regular, substitutions map[string]int) []dto.AvailableTeacher {
	ranked := make([]dto.AvailableTeacher, 0, len(candidates))
	for _, teacher := range candidates {
		ranked = append(ranked, dto.AvailableTeacher{
			TeacherID:   teacher.ID,
			Name:        teacher.FullName,
			CurrentLoad: regular[teacher.ID] + substitutions[teacher.ID],
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CurrentLoad < ranked[j].CurrentLoad
	})
	return ranked
}

func loadIndex(loads []models.TeacherLoad) map[string]int {
	index := make(map[string]int, len(loads))
	for _, load := range loads {
		index[load.TeacherID] += load.Total
	}
	return index
}
