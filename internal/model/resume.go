package model

import "time"

// ResumeDraft 是模型生成的结构化简历，字段名与模型输出的 JSON 保持一致。
// 缺失的数据用空字符串或空数组表示，不允许出现 null。
type ResumeDraft struct {
	Summary        string           `json:"SUMMARY"`
	Skills         ResumeSkills     `json:"SKILLS"`
	WorkExperience []WorkExperience `json:"WORK_EXPERIENCE"`
	Education      []Education      `json:"EDUCATION"`
	Projects       []Project        `json:"PROJECTS"`
}

// ResumeSkills 中每个字段都是逗号分隔的列表。
type ResumeSkills struct {
	Languages      string `json:"Languages"`
	AIML           string `json:"AI_ML"`
	Tools          string `json:"Tools"`
	Database       string `json:"Database"`
	Cloud          string `json:"Cloud"`
	WebDevelopment string `json:"Web_Development"`
	Certifications string `json:"Certifications"`
}

type WorkExperience struct {
	Company  string   `json:"Company"`
	Location string   `json:"Location"`
	Title    string   `json:"Title"`
	Dates    string   `json:"Dates"`
	Bullets  []string `json:"Bullets"`
}

type Education struct {
	Degree          string   `json:"Degree"`
	University      string   `json:"University"`
	RelevantCourses []string `json:"Relevant_Courses"`
	GPA             string   `json:"GPA"`
	Dates           string   `json:"Dates"`
}

type Project struct {
	Name         string   `json:"Name"`
	Technologies string   `json:"Technologies"`
	Bullets      []string `json:"Bullets"`
	LiveDemo     string   `json:"Live_Demo"`
}

// Normalize 把所有 nil 切片替换为空切片，保证序列化后不出现 null。
func (d *ResumeDraft) Normalize() {
	if d.WorkExperience == nil {
		d.WorkExperience = []WorkExperience{}
	}
	for i := range d.WorkExperience {
		if d.WorkExperience[i].Bullets == nil {
			d.WorkExperience[i].Bullets = []string{}
		}
	}
	if d.Education == nil {
		d.Education = []Education{}
	}
	for i := range d.Education {
		if d.Education[i].RelevantCourses == nil {
			d.Education[i].RelevantCourses = []string{}
		}
	}
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	for i := range d.Projects {
		if d.Projects[i].Bullets == nil {
			d.Projects[i].Bullets = []string{}
		}
	}
}

// ResumeMetadata 描述一次简历生成的上下文信息。
type ResumeMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	UserID      string    `json:"user_id"`
	SourcesUsed int       `json:"sources_used"`
}

// ResumeResult 是简历生成接口的返回体。
type ResumeResult struct {
	Resume   *ResumeDraft   `json:"resume"`
	Metadata ResumeMetadata `json:"metadata"`
}

// NewResumeMetadata 以当前时间构造元数据。
func NewResumeMetadata(userID string, sources int) ResumeMetadata {
	return ResumeMetadata{GeneratedAt: time.Now(), UserID: userID, SourcesUsed: sources}
}
