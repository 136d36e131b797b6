package enum

type SecurityKind string

const (
	Safe SecurityKind = "SAFE"
	Note SecurityKind = "NOTE"
)

type SecurityStatus string

const (
	// outstanding and eligible for conversion
	Active SecurityStatus = "ACTIVE"
	// converted into equity - terminal
	Converted SecurityStatus = "CONVERTED"
	// cancelled without conversion (e.g. company wound down) - terminal
	Dissolved SecurityStatus = "DISSOLVED"
	// note principal and interest paid back - terminal
	Repaid SecurityStatus = "REPAID"
)

// Terminal returns true once no further transition is allowed.
func (s SecurityStatus) Terminal() bool {
	return s == Converted || s == Dissolved || s == Repaid
}

type Compounding string

const (
	Simple   Compounding = "SIMPLE"
	Compound Compounding = "COMPOUND"
)

type RoundStatus string

const (
	RoundOpen   RoundStatus = "OPEN"
	RoundActive RoundStatus = "ACTIVE"
	RoundClosed RoundStatus = "CLOSED"
)

type ShareClassType string

const (
	Common    ShareClassType = "COMMON"
	Preferred ShareClassType = "PREFERRED"
	Option    ShareClassType = "OPTION"
	Warrant   ShareClassType = "WARRANT"
)

type StakeholderType string

const (
	Founder    StakeholderType = "FOUNDER"
	Employee   StakeholderType = "EMPLOYEE"
	Investor   StakeholderType = "INVESTOR"
	Advisor    StakeholderType = "ADVISOR"
	Consultant StakeholderType = "CONSULTANT"
)

type CapTableEventType string

const (
	EventConversion CapTableEventType = "CONVERSION"
	EventRound      CapTableEventType = "ROUND"
	EventAdjustment CapTableEventType = "ADJUSTMENT"
)

type ExitType string

const (
	Acquisition ExitType = "ACQUISITION"
	IPO         ExitType = "IPO"
	Merger      ExitType = "MERGER"
	Liquidation ExitType = "LIQUIDATION"
)

type DistributionStatus string

const (
	DistributionPending    DistributionStatus = "PENDING"
	DistributionProcessing DistributionStatus = "PROCESSING"
	DistributionCompleted  DistributionStatus = "COMPLETED"
)

// EvaluationState tracks a (security, round) pair through the
// conversion worker.
type EvaluationState string

const (
	NotEvaluated EvaluationState = "NOT_EVALUATED"
	Qualified    EvaluationState = "QUALIFIED"
	Disqualified EvaluationState = "DISQUALIFIED"
	// qualified and priced, but auto conversion is off so it
	// waits for a manual conversion
	Eligible      EvaluationState = "ELIGIBLE"
	EvalConverted EvaluationState = "CONVERTED"
)

type QualifyReason string

const (
	ReasonQualified       QualifyReason = "QUALIFIED"
	ReasonNoPrice         QualifyReason = "NO_PRICE"
	ReasonBelowThreshold  QualifyReason = "BELOW_THRESHOLD"
	ReasonNotActive       QualifyReason = "NOT_ACTIVE"
	ReasonStartupMismatch QualifyReason = "STARTUP_MISMATCH"
	// the round closed before the security was issued
	ReasonRoundPredates QualifyReason = "ROUND_PREDATES_SECURITY"
)
