package job

import (
	"encoding/json"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"

	"devboard/internal/errcode"
)

// Type 是职位形式的闭合枚举。
type Type string

const (
	TypeFullTime   Type = "FULL_TIME"
	TypePartTime   Type = "PART_TIME"
	TypeContract   Type = "CONTRACT"
	TypeInternship Type = "INTERNSHIP"
)

// ParseType 校验职位形式取值；空串表示未提供。
func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeFullTime, TypePartTime, TypeContract, TypeInternship:
		return Type(raw), true
	}
	return "", false
}

// Experience 是经验级别的闭合枚举。
type Experience string

const (
	ExperienceEntry  Experience = "ENTRY"
	ExperienceJunior Experience = "JUNIOR"
	ExperienceMid    Experience = "MID"
	ExperienceSenior Experience = "SENIOR"
	ExperienceLead   Experience = "LEAD"
)

// ParseExperience 校验经验级别取值；空串表示未提供。
func ParseExperience(raw string) (Experience, bool) {
	switch Experience(raw) {
	case ExperienceEntry, ExperienceJunior, ExperienceMid, ExperienceSenior, ExperienceLead:
		return Experience(raw), true
	}
	return "", false
}

const (
	maxTitleLen       = 200
	maxDescriptionLen = 10000
	maxLocationLen    = 200
	maxListEntries    = 50
	maxListEntryLen   = 200
)

// 描述允许有限的用户富文本，其余字段按纯文本处理。
var descriptionPolicy = bluemonday.UGCPolicy()

// SpecInput 是未经校验的职位描述输入。
type SpecInput struct {
	Title            string
	Description      string
	Requirements     []string
	Responsibilities []string
	Skills           []string
	SalaryMin        int64
	SalaryMax        int64
	SalaryCurrency   string
	Location         string
	Type             string
	Experience       string
	IsRemote         bool
}

// Spec 是构造时即校验完成的职位描述。只能通过 ParseSpec 获得。
type Spec struct {
	Title            string
	Description      string
	Requirements     []string
	Responsibilities []string
	Skills           []string
	SalaryMin        int64
	SalaryMax        int64
	SalaryCurrency   string
	Location         string
	Type             Type
	Experience       Experience
	IsRemote         bool
}

// ParseSpec 校验输入并返回规范化的 Spec。所有违例返回 errcode.Validation。
func ParseSpec(in SpecInput) (Spec, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Spec{}, errcode.Validation("title is required")
	}
	if len(title) > maxTitleLen {
		return Spec{}, errcode.Validationf("title exceeds %d characters", maxTitleLen)
	}

	description := strings.TrimSpace(descriptionPolicy.Sanitize(in.Description))
	if description == "" {
		return Spec{}, errcode.Validation("description is required")
	}
	if len(description) > maxDescriptionLen {
		return Spec{}, errcode.Validationf("description exceeds %d characters", maxDescriptionLen)
	}

	if in.SalaryMin < 0 || in.SalaryMax < 0 {
		return Spec{}, errcode.Validation("salary bounds must be non-negative")
	}
	if in.SalaryMin > in.SalaryMax {
		return Spec{}, errcode.Validation("salary min must not exceed salary max")
	}

	currency := strings.ToUpper(strings.TrimSpace(in.SalaryCurrency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return Spec{}, errcode.Validation("salary currency must be a 3-letter code")
	}

	location := strings.TrimSpace(in.Location)
	if len(location) > maxLocationLen {
		return Spec{}, errcode.Validationf("location exceeds %d characters", maxLocationLen)
	}

	jobType, ok := ParseType(in.Type)
	if !ok {
		return Spec{}, errcode.Validationf("unknown job type %q", in.Type)
	}
	experience, ok := ParseExperience(in.Experience)
	if !ok {
		return Spec{}, errcode.Validationf("unknown experience level %q", in.Experience)
	}

	requirements, err := normalizeList("requirements", in.Requirements)
	if err != nil {
		return Spec{}, err
	}
	responsibilities, err := normalizeList("responsibilities", in.Responsibilities)
	if err != nil {
		return Spec{}, err
	}
	skills, err := normalizeList("skills", in.Skills)
	if err != nil {
		return Spec{}, err
	}

	return Spec{
		Title:            title,
		Description:      description,
		Requirements:     requirements,
		Responsibilities: responsibilities,
		Skills:           skills,
		SalaryMin:        in.SalaryMin,
		SalaryMax:        in.SalaryMax,
		SalaryCurrency:   currency,
		Location:         location,
		Type:             jobType,
		Experience:       experience,
		IsRemote:         in.IsRemote,
	}, nil
}

func normalizeList(field string, entries []string) ([]string, error) {
	if len(entries) > maxListEntries {
		return nil, errcode.Validationf("%s exceeds %d entries", field, maxListEntries)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		trimmed := strings.TrimSpace(e)
		if trimmed == "" {
			continue
		}
		if len(trimmed) > maxListEntryLen {
			return nil, errcode.Validationf("%s entry exceeds %d characters", field, maxListEntryLen)
		}
		out = append(out, trimmed)
	}
	return out, nil
}

// EncodeSkills 将技能列表编码为小写逗号包裹串存储，便于跨库子串检索。
func EncodeSkills(skills []string) string {
	if len(skills) == 0 {
		return ""
	}
	lowered := make([]string, 0, len(skills))
	for _, s := range skills {
		lowered = append(lowered, strings.ToLower(strings.TrimSpace(s)))
	}
	return "," + strings.Join(lowered, ",") + ","
}

// DecodeSkills 是 EncodeSkills 的逆操作。
func DecodeSkills(encoded string) []string {
	trimmed := strings.Trim(encoded, ",")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, ",")
}

// EncodeList 将字符串列表编码为 JSONB 列。
func EncodeList(entries []string) datatypes.JSON {
	if entries == nil {
		entries = []string{}
	}
	raw, _ := json.Marshal(entries)
	return datatypes.JSON(raw)
}

// DecodeList 是 EncodeList 的逆操作。
func DecodeList(raw datatypes.JSON) []string {
	var out []string
	if len(raw) == 0 {
		return nil
	}
	_ = json.Unmarshal(raw, &out)
	return out
}
