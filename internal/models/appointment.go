package models

import (
	"time"

	"gorm.io/gorm"
)

// AppointmentStatus is the lifecycle status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCanceled  AppointmentStatus = "canceled"
	StatusPast      AppointmentStatus = "past"
)

// Appointment represents a scheduled visit with a provider
type Appointment struct {
	gorm.Model

	AppointmentID string            `json:"appointment_id" gorm:"uniqueIndex"`
	PatientID     string            `json:"patient_id" gorm:"index"`
	ProviderName  string            `json:"provider_name"`
	StartTime     time.Time         `json:"start_time"`
	Location      string            `json:"location"` // clinic name or "Telehealth"
	Status        AppointmentStatus `json:"status"`
	Notes         string            `json:"notes,omitempty"`
}
