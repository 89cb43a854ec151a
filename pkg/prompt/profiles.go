package prompt

import (
	"fmt"
	"sort"
)

// Task names a report type.
type Task string

const (
	TaskExecutiveSummary Task = "executive_summary"
	TaskBusinessPlan     Task = "business_plan"
	TaskMarketAnalysis   Task = "market_analysis"
	TaskInvestorPitch    Task = "investor_pitch"
)

// Language is an output language code.
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
)

const (
	DefaultTask     = TaskExecutiveSummary
	DefaultLanguage = LanguageChinese
)

// Profile is the fixed instruction set for one task in one language.
type Profile struct {
	Title    string
	Role     string
	Task     string
	Sections []string
}

type labels struct {
	Name        string
	Project     string
	Indication  string
	Stage       string
	Modality    string
	Body        string
	Market      string
	NoMarket    string
	Rules       []string
	FormatIntro string
}

var languages = map[Language]labels{
	LanguageChinese: {
		Name:       "简体中文",
		Project:    "项目名称",
		Indication: "适应症",
		Stage:      "研发阶段",
		Modality:   "技术类型",
		Body:       "项目原始信息",
		Market:     "市场数据",
		NoMarket:   "未检索到外部市场数据，请依据项目信息和行业常识撰写。",
		Rules: []string{
			"禁止闲聊，直接输出 Markdown 内容。",
			"如果用户遗漏细节，根据行业常识进行合理估算或占位，并标注为估算。",
			"引用市场数据时注明其来源于检索结果。",
		},
		FormatIntro: "请严格按照以下 Markdown 结构输出：",
	},
	LanguageEnglish: {
		Name:       "English",
		Project:    "Project name",
		Indication: "Indication",
		Stage:      "Development stage",
		Modality:   "Modality",
		Body:       "Raw project information",
		Market:     "Market data",
		NoMarket:   "No external market data was retrieved; rely on the project information and general industry knowledge.",
		Rules: []string{
			"No small talk. Output Markdown only.",
			"Where details are missing, make a reasonable industry-standard estimate or a placeholder and label it as such.",
			"When quoting market data, say that it comes from the search results.",
		},
		FormatIntro: "Follow this Markdown structure exactly:",
	},
}

var profiles = map[Task]map[Language]Profile{
	TaskExecutiveSummary: {
		LanguageChinese: {
			Title: "Executive Summary",
			Role:  "你现在是 Sensight (晟策) 的首席医疗投资顾问。",
			Task:  "接收用户的输入，直接将其重写为标准的 **Executive Summary (执行摘要)**。",
			Sections: []string{
				"🚀 投资亮点 (Investment Highlights)",
				"🩺 未满足需求 (Unmet Needs)",
				"💡 解决方案 (Solution)",
				"📅 融资与规划 (Ask & Milestones)",
			},
		},
		LanguageEnglish: {
			Title: "Executive Summary",
			Role:  "You are the chief healthcare investment advisor at Sensight.",
			Task:  "Rewrite the user's input directly into a standard **Executive Summary**.",
			Sections: []string{
				"Investment Highlights",
				"Unmet Needs",
				"Solution",
				"Ask & Milestones",
			},
		},
	},
	TaskBusinessPlan: {
		LanguageChinese: {
			Title: "商业计划书",
			Role:  "你是一名拥有十年医疗 VC 经验的 CFA 级商业计划书撰写人。",
			Task:  "将用户提供的技术与商业信息整理成一份完整的商业计划书。",
			Sections: []string{
				"公司概况",
				"产品与技术",
				"市场规模",
				"竞争格局",
				"商业模式",
				"团队",
				"财务预测",
				"融资需求",
			},
		},
		LanguageEnglish: {
			Title: "Business Plan",
			Role:  "You are a CFA-grade business plan writer with ten years of healthcare VC experience.",
			Task:  "Turn the user's technical and commercial information into a complete business plan.",
			Sections: []string{
				"Company Overview",
				"Product & Technology",
				"Market Size",
				"Competitive Landscape",
				"Business Model",
				"Team",
				"Financial Projections",
				"Funding Requirements",
			},
		},
	},
	TaskMarketAnalysis: {
		LanguageChinese: {
			Title: "市场分析",
			Role:  "你是一名专注医疗健康领域的行业研究分析师。",
			Task:  "结合检索到的市场数据，为该项目撰写市场分析报告，可使用 Markdown 表格对比竞品。",
			Sections: []string{
				"市场规模与增速",
				"患者人群",
				"竞争产品",
				"临床进展",
				"准入与支付",
				"风险",
			},
		},
		LanguageEnglish: {
			Title: "Market Analysis",
			Role:  "You are an industry research analyst focused on healthcare.",
			Task:  "Using the retrieved market data, write a market analysis for this project. Markdown tables may be used to compare competitors.",
			Sections: []string{
				"Market Size & Growth",
				"Patient Population",
				"Competing Products",
				"Clinical Landscape",
				"Market Access & Reimbursement",
				"Risks",
			},
		},
	},
	TaskInvestorPitch: {
		LanguageChinese: {
			Title: "路演提纲",
			Role:  "你是 Sensight (晟策) 的路演教练，擅长把技术语言翻译成投资人语言。",
			Task:  "把用户输入改写为路演幻灯片提纲，每一节不超过六个要点。",
			Sections: []string{
				"痛点",
				"解决方案",
				"核心数据",
				"市场机会",
				"竞争优势",
				"团队",
				"融资计划",
			},
		},
		LanguageEnglish: {
			Title: "Investor Pitch",
			Role:  "You are Sensight's pitch coach, translating technical language into investor language.",
			Task:  "Rewrite the user's input as a pitch deck outline with no more than six bullets per section.",
			Sections: []string{
				"Problem",
				"Solution",
				"Key Data",
				"Market Opportunity",
				"Competitive Advantage",
				"Team",
				"The Ask",
			},
		},
	},
}

// Lookup returns the profile for task and language, applying defaults for
// empty values.
func Lookup(task Task, lang Language) (Profile, error) {
	if task == "" {
		task = DefaultTask
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	byLang, ok := profiles[task]
	if !ok {
		return Profile{}, fmt.Errorf("unknown task: %s", task)
	}
	p, ok := byLang[lang]
	if !ok {
		return Profile{}, fmt.Errorf("unsupported language: %s", lang)
	}
	return p, nil
}

// Tasks returns the known task names in a stable order.
func Tasks() []Task {
	out := make([]Task, 0, len(profiles))
	for t := range profiles {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Languages returns the supported language codes in a stable order.
func Languages() []Language {
	out := make([]Language, 0, len(languages))
	for l := range languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LanguageName returns the display name of lang.
func LanguageName(lang Language) string {
	if l, ok := languages[lang]; ok {
		return l.Name
	}
	return string(lang)
}
