package entity

// CareKind names one of the per-member care record collections.
type CareKind string

const (
	CareKindDoctor     CareKind = "doctor"
	CareKindMedication CareKind = "medication"
	CareKindDiagnosis  CareKind = "diagnosis"
)

func (k CareKind) Valid() bool {
	switch k {
	case CareKindDoctor, CareKindMedication, CareKindDiagnosis:
		return true
	}
	return false
}

// Table is the table holding records of this kind.
func (k CareKind) Table() string {
	switch k {
	case CareKindDoctor:
		return "doctors"
	case CareKindMedication:
		return "medications"
	case CareKindDiagnosis:
		return "diagnoses"
	}
	return ""
}

// UniqueConstraint names the per-member unique name index of the kind.
func (k CareKind) UniqueConstraint() string {
	return "uq_" + k.Table() + "_member_name"
}

// CareRecord is implemented by the pointer types of Doctor, Medication and
// Diagnosis so repositories and usecases can treat them uniformly.
type CareRecord interface {
	GetID() uint
	GetMemberID() uint
	GetName() string
	SetName(name string)
	Kind() CareKind
}

// Doctor is a treating doctor recorded against a member.
type Doctor struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex:uq_doctors_member_name,priority:2" json:"name"`
	MemberID uint   `gorm:"not null;uniqueIndex:uq_doctors_member_name,priority:1" json:"member_id"`
}

func (Doctor) TableName() string { return "doctors" }

func (d *Doctor) GetID() uint         { return d.ID }
func (d *Doctor) GetMemberID() uint   { return d.MemberID }
func (d *Doctor) GetName() string     { return d.Name }
func (d *Doctor) SetName(name string) { d.Name = name }
func (d *Doctor) Kind() CareKind      { return CareKindDoctor }

// Medication is a current medication of a member.
type Medication struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex:uq_medications_member_name,priority:2" json:"name"`
	MemberID uint   `gorm:"not null;uniqueIndex:uq_medications_member_name,priority:1" json:"member_id"`
}

func (Medication) TableName() string { return "medications" }

func (m *Medication) GetID() uint         { return m.ID }
func (m *Medication) GetMemberID() uint   { return m.MemberID }
func (m *Medication) GetName() string     { return m.Name }
func (m *Medication) SetName(name string) { m.Name = name }
func (m *Medication) Kind() CareKind      { return CareKindMedication }

// Diagnosis is a recorded diagnosis of a member.
type Diagnosis struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"type:varchar(100);not null;uniqueIndex:uq_diagnoses_member_name,priority:2" json:"name"`
	MemberID uint   `gorm:"not null;uniqueIndex:uq_diagnoses_member_name,priority:1" json:"member_id"`
}

func (Diagnosis) TableName() string { return "diagnoses" }

func (d *Diagnosis) GetID() uint         { return d.ID }
func (d *Diagnosis) GetMemberID() uint   { return d.MemberID }
func (d *Diagnosis) GetName() string     { return d.Name }
func (d *Diagnosis) SetName(name string) { d.Name = name }
func (d *Diagnosis) Kind() CareKind      { return CareKindDiagnosis }
