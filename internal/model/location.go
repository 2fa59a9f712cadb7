package model

import (
	"fmt"
	"time"
)

// Location is a physical place assets can be kept.
type Location struct {
	ID             int64      `json:"id"`
	RegionName     string     `json:"region_name"`
	DepartmentName string     `json:"department_name"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// DisplayName returns "Region - Department".
func (l *Location) DisplayName() string {
	return fmt.Sprintf("%s - %s", l.RegionName, l.DepartmentName)
}
