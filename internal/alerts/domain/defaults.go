package alerts

// DefaultConfiguration returns the built-in alert document used when
// nothing is stored yet and as the merge baseline on every load.
func DefaultConfiguration() Configuration {
	return Configuration{
		GlobalSettings: GlobalSettings{
			EnabledAlerts:           true,
			SoundEnabled:            false,
			EmailNotifications:      false,
			MaxAlertsDisplayed:      5,
			AutoResolveAfterMinutes: 30,
		},
		Rules: []Rule{
			{
				ID:          "high-waste-volume",
				Name:        "High Waste Volume",
				Description: "Triggers when daily waste exceeds threshold",
				Enabled:     true,
				Type:        TypeWarning,
				Trigger: Trigger{
					Condition:  ConditionDailyTotalWaste,
					Threshold:  100,
					Timeframe:  "daily",
					Comparison: CompareGreater,
				},
				Message: Message{
					Template: "High waste volume detected: {value}kg exceeds daily limit of {threshold}kg",
					Severity: SeverityMedium,
				},
				Actions: Actions{AutoResolve: false, CooldownMinutes: 60},
			},
			{
				ID:          "low-recycling-rate",
				Name:        "Low Recycling Rate",
				Description: "Triggers when recycling rate falls below threshold",
				Enabled:     true,
				Type:        TypeWarning,
				Trigger: Trigger{
					Condition:  ConditionRecyclingRate,
					Threshold:  50,
					Timeframe:  "daily",
					Comparison: CompareLess,
				},
				Message: Message{
					Template: "Recycling rate is low: {value}% is below target of {threshold}%",
					Severity: SeverityMedium,
				},
				Actions: Actions{AutoResolve: true, CooldownMinutes: 30},
			},
			{
				ID:          "container-full",
				Name:        "Container Nearly Full",
				Description: "Triggers when category containers are nearly full",
				Enabled:     true,
				Type:        TypeInfo,
				Trigger: Trigger{
					Condition:  ConditionCategoryWeight,
					Threshold:  80,
					Timeframe:  "daily",
					Comparison: CompareGreaterOrEqual,
				},
				Message: Message{
					Template: "{category} container is {value}% full - consider emptying soon",
					Severity: SeverityLow,
				},
				Actions: Actions{AutoResolve: true, CooldownMinutes: 120},
			},
			{
				ID:          "recycling-goal-met",
				Name:        "Recycling Goal Achieved",
				Description: "Positive feedback when recycling goals are met",
				Enabled:     true,
				Type:        TypeSuccess,
				Trigger: Trigger{
					Condition:  ConditionRecyclingRate,
					Threshold:  80,
					Timeframe:  "daily",
					Comparison: CompareGreaterOrEqual,
				},
				Message: Message{
					Template: "Excellent! Daily recycling rate of {value}% exceeds target of {threshold}%",
					Severity: SeverityLow,
				},
				Actions: Actions{AutoResolve: true, CooldownMinutes: 480},
			},
			{
				ID:          "critical-waste-level",
				Name:        "Critical Waste Level",
				Description: "Critical alert for extremely high waste levels",
				Enabled:     true,
				Type:        TypeError,
				Trigger: Trigger{
					Condition:  ConditionDailyTotalWaste,
					Threshold:  200,
					Timeframe:  "daily",
					Comparison: CompareGreater,
				},
				Message: Message{
					Template: "CRITICAL: Waste level of {value}kg far exceeds safe limit of {threshold}kg",
					Severity: SeverityCritical,
				},
				Actions: Actions{AutoResolve: false, CooldownMinutes: 15, SendEmail: true, PlaySound: true},
			},
			{
				ID:          "no-recent-activity",
				Name:        "No Recent Activity",
				Description: "Alert when no waste entries recorded recently",
				Enabled:     false,
				Type:        TypeInfo,
				Trigger: Trigger{
					Condition:  ConditionHoursSinceLastEntry,
					Threshold:  24,
					Timeframe:  "daily",
					Comparison: CompareGreater,
				},
				Message: Message{
					Template: "No waste entries recorded in the last {value} hours",
					Severity: SeverityLow,
				},
				Actions: Actions{AutoResolve: true, CooldownMinutes: 360},
			},
			{
				ID:          "monthly-target-behind",
				Name:        "Behind Monthly Target",
				Description: "Alert when monthly recycling target is not being met",
				Enabled:     true,
				Type:        TypeWarning,
				Trigger: Trigger{
					Condition:  ConditionMonthlyRecyclingProgress,
					Threshold:  75,
					Timeframe:  "monthly",
					Comparison: CompareLess,
				},
				Message: Message{
					Template: "Monthly recycling progress at {value}% - behind target pace of {threshold}%",
					Severity: SeverityMedium,
				},
				Actions: Actions{AutoResolve: true, CooldownMinutes: 1440},
			},
		},
	}
}
