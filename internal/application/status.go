package application

// Status 是投递状态机的闭合状态枚举。
type Status string

const (
	StatusPending      Status = "PENDING"
	StatusReviewing    Status = "REVIEWING"
	StatusInterviewing Status = "INTERVIEWING"
	StatusAccepted     Status = "ACCEPTED"
	StatusRejected     Status = "REJECTED"
	StatusWithdrawn    Status = "WITHDRAWN"
)

// ParseStatus 校验状态取值。
func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusReviewing, StatusInterviewing,
		StatusAccepted, StatusRejected, StatusWithdrawn:
		return Status(raw), true
	}
	return "", false
}

// Terminal 判断状态是否为终态（不允许任何后续流转）。
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// 雇主视角的流转表。REVIEWING -> REVIEWING 是幂等空转。
var employerTransitions = map[Status][]Status{
	StatusPending:      {StatusReviewing, StatusAccepted, StatusRejected},
	StatusReviewing:    {StatusInterviewing, StatusAccepted, StatusRejected, StatusReviewing},
	StatusInterviewing: {StatusAccepted, StatusRejected},
}

// CanEmployerTransition 判断雇主能否把投递从 from 推进到 to。
func CanEmployerTransition(from, to Status) bool {
	for _, allowed := range employerTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanApplicantWithdraw 判断投递人能否从 from 撤回。
// 任何非终态都允许撤回；ACCEPTED / REJECTED / WITHDRAWN 不允许。
func CanApplicantWithdraw(from Status) bool {
	return !from.Terminal()
}
