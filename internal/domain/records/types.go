package records

type RecordType string

const (
	RecordTypeVaccination  RecordType = "VACCINATION"
	RecordTypeMedicalVisit RecordType = "MEDICAL_VISIT"
	RecordTypeHealth       RecordType = "HEALTH"
	RecordTypePhoto        RecordType = "PHOTO"
	RecordTypeOther        RecordType = "OTHER"
)

func (t RecordType) Valid() bool {
	switch t {
	case RecordTypeVaccination, RecordTypeMedicalVisit, RecordTypeHealth, RecordTypePhoto, RecordTypeOther:
		return true
	}
	return false
}

type Source string

const (
	SourceManual      Source = "manual"
	SourceIntegration Source = "integration"
)

type RecordStatus string

const (
	RecordStatusActive RecordStatus = "active"
	RecordStatusVoided RecordStatus = "voided"
)
