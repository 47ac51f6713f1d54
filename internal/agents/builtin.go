package agents

// builtinDefinitions are the 15 UK sponsor-compliance agents shipped with the
// server. AGENTS_FILE entries override or extend these; the prompt templates
// here are the structural rule summaries, maintained by the compliance team.
func builtinDefinitions() []Definition {
	return []Definition{
		{
			Type:        "right_to_work",
			DisplayName: "Right to Work",
			Description: "Statutory right-to-work checks before and during employment",
			InputSchema: []InputField{
				{Name: "rtw_check_missing", Kind: FieldBool},
				{Name: "share_code_invalid", Kind: FieldBool},
				{Name: "check_date", Kind: FieldString},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing right-to-work checks for a sponsored worker. Assess whether the sponsor holds a compliant right-to-work check (manual or via share code) covering the full employment period.",
			RedFlagKeys:    []string{"share_code_invalid"},
		},
		{
			Type:        "salary_threshold",
			DisplayName: "Salary Threshold",
			Description: "Salary against the SOC going rate and visa thresholds",
			InputSchema: []InputField{
				{Name: "missing_payslips", Kind: FieldBool},
				{Name: "below_going_rate", Kind: FieldBool},
				{Name: "annual_salary", Kind: FieldString},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether a sponsored worker's salary meets the threshold and going rate for their SOC code, evidenced by payslips matching the Certificate of Sponsorship.",
			RedFlagKeys:    []string{"below_going_rate"},
		},
		{
			Type:        "soc_code_skill_level",
			DisplayName: "SOC Code & Skill Level",
			Description: "Role genuinely matches the assigned SOC code and RQF level",
			InputSchema: []InputField{
				{Name: "duties_mismatch", Kind: FieldBool},
				{Name: "soc_code_invalid", Kind: FieldBool},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the worker's actual duties match the SOC code on their Certificate of Sponsorship and meet the required skill level.",
			RedFlagKeys:    []string{"duties_mismatch"},
		},
		{
			Type:        "cos_assignment",
			DisplayName: "CoS Assignment",
			Description: "Certificate of Sponsorship assigned and used correctly",
			InputSchema: []InputField{
				{Name: "cos_missing", Kind: FieldBool},
				{Name: "cos_expired", Kind: FieldBool},
				{Name: "start_date_before_cos", Kind: FieldBool},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the Certificate of Sponsorship was assigned correctly, remains valid, and the worker started within the permitted window.",
			RedFlagKeys:    []string{"start_date_before_cos"},
		},
		{
			Type:        "reporting_duties",
			DisplayName: "Reporting Duties",
			Description: "SMS reporting of changes within statutory deadlines",
			InputSchema: []InputField{
				{Name: "unreported_change", Kind: FieldBool},
				{Name: "report_overdue_days", Kind: FieldString},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the sponsor reported worker changes (role, salary, location, leaving) on the Sponsorship Management System within the required deadlines.",
			RedFlagKeys:    []string{"unreported_change"},
		},
		{
			Type:        "record_keeping",
			DisplayName: "Record Keeping",
			Description: "Appendix D document retention",
			InputSchema: []InputField{
				{Name: "contact_details_missing", Kind: FieldBool},
				{Name: "contract_missing", Kind: FieldBool},
				{Name: "recruitment_evidence_missing", Kind: FieldBool},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the sponsor retains the Appendix D records (contracts, contact details, recruitment evidence, qualifications) for the sponsored worker.",
		},
		{
			Type:        "absence_monitoring",
			DisplayName: "Absence Monitoring",
			Description: "Tracking and escalation of unauthorised absences",
			InputSchema: []InputField{
				{Name: "tracking_missing", Kind: FieldBool},
				{Name: "unauthorised_absences", Kind: FieldString},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the sponsor monitors the worker's attendance and escalates unauthorised absences of 10 or more consecutive working days.",
			RedFlagKeys:    []string{"unauthorised_absences_over_10_days"},
		},
		{
			Type:        "visa_expiry",
			DisplayName: "Visa Expiry",
			Description: "Visa validity and renewal tracking",
			InputSchema: []InputField{
				{Name: "visa_expired", Kind: FieldBool},
				{Name: "expiry_date", Kind: FieldString},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the worker's visa remains valid and whether renewal is being tracked ahead of expiry.",
		},
		{
			Type:        "sponsor_licence_rating",
			DisplayName: "Sponsor Licence Rating",
			Description: "Licence rating and outstanding action plans",
			InputSchema: []InputField{
				{Name: "licence_downgraded", Kind: FieldBool},
				{Name: "action_plan_open", Kind: FieldBool},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing the sponsor's licence rating and any Home Office action plan affecting this worker's sponsorship.",
			RedFlagKeys:    []string{"licence_downgraded"},
		},
		{
			Type:        "job_description_match",
			DisplayName: "Job Description Match",
			Description: "Advertised role versus actual duties",
			InputSchema: []InputField{
				{Name: "job_description_missing", Kind: FieldBool},
				{Name: "duties_changed_unreported", Kind: FieldBool},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the worker's current duties still match the job description the Certificate of Sponsorship was assigned against.",
		},
		{
			Type:        "working_hours",
			DisplayName: "Working Hours",
			Description: "Contracted versus actual hours, secondary employment",
			InputSchema: []InputField{
				{Name: "hours_records_missing", Kind: FieldBool},
				{Name: "weekly_hours", Kind: FieldString},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the worker's hours match the sponsored contract and whether any supplementary employment complies with visa conditions.",
		},
		{
			Type:        "recruitment_practices",
			DisplayName: "Recruitment Practices",
			Description: "Fair recruitment and no prohibited fees",
			InputSchema: []InputField{
				{Name: "recruitment_fees_charged", Kind: FieldBool},
				{Name: "process_evidence_missing", Kind: FieldBool},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the worker was recruited through a compliant process and was not charged prohibited recruitment fees.",
			RedFlagKeys:    []string{"recruitment_fees_charged"},
		},
		{
			Type:        "genuine_vacancy",
			DisplayName: "Genuine Vacancy",
			Description: "Role is a genuine vacancy, not created for sponsorship",
			InputSchema: []InputField{
				{Name: "vacancy_evidence_missing", Kind: FieldBool},
				{Name: "role_not_genuine", Kind: FieldBool},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the sponsored role is a genuine vacancy that exists independently of the sponsorship arrangement.",
			RedFlagKeys:    []string{"role_not_genuine"},
		},
		{
			Type:        "maintenance_funds",
			DisplayName: "Maintenance Funds",
			Description: "Maintenance certification on the CoS",
			InputSchema: []InputField{
				{Name: "maintenance_not_certified", Kind: FieldBool},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether maintenance was correctly certified on the Certificate of Sponsorship where the sponsor opted to certify.",
		},
		{
			Type:        "immigration_skills_charge",
			DisplayName: "Immigration Skills Charge",
			Description: "ISC paid in full for the sponsorship period",
			InputSchema: []InputField{
				{Name: "isc_payment_missing", Kind: FieldBool},
				{Name: "isc_amount", Kind: FieldString},
			},
			PromptTemplate: "You are a UK immigration compliance auditor assessing whether the Immigration Skills Charge was paid in full for the length of sponsorship stated on the Certificate of Sponsorship.",
		},
	}
}
