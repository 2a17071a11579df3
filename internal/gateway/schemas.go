package gateway

// Intent schemas published to the model, one function tool per supported
// operation. create_budget uses the batched-array form: a single budget is
// just a one-element batch.

func intentTools() []oaiTool {
	return []oaiTool{
		fn("create_user_profile", "Creates or updates the user's financial profile.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"salary": map[string]any{
					"type":        "number",
					"description": "User's monthly net income in their local currency",
				},
				"location_type": map[string]any{
					"type":        "string",
					"enum":        []string{"city", "urban", "village"},
					"description": "Type of residential area for cost-of-living calculations",
				},
				"currency": map[string]any{
					"type":        "string",
					"enum":        []string{"USD", "EUR", "INR", "GBP"},
					"description": "Primary currency for all financial transactions",
				},
			},
			"required": []string{"salary", "location_type", "currency"},
		}),
		fn("log_expense", "Logs a new expense for the user.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"amount": map[string]any{
					"type":        "number",
					"minimum":     0.01,
					"description": "Expense amount in the user's primary currency",
				},
				"category_id": map[string]any{
					"type":        "integer",
					"description": "ID from the predefined category list",
				},
				"description": map[string]any{
					"type":        "string",
					"maxLength":   255,
					"description": "Brief expense description",
				},
				"expense_date": map[string]any{
					"type":        "string",
					"format":      "date",
					"description": "Transaction date in YYYY-MM-DD format",
				},
			},
			"required": []string{"amount", "category_id", "expense_date"},
		}),
		fn("create_budget", "Creates or updates budgets for one or more categories.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"budgets": map[string]any{
					"type":        "array",
					"description": "Budgets to create or update, one per category",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"category_id": map[string]any{
								"type":        "integer",
								"description": "Category ID for budget allocation",
							},
							"amount": map[string]any{
								"type":        "number",
								"minimum":     0.01,
								"description": "Budget amount in the user's currency",
							},
							"start_date": map[string]any{
								"type":        "string",
								"format":      "date",
								"description": "Budget cycle start date (YYYY-MM-DD)",
							},
							"end_date": map[string]any{
								"type":        "string",
								"format":      "date",
								"description": "Budget cycle end date (YYYY-MM-DD)",
							},
						},
						"required": []string{"category_id", "amount", "start_date", "end_date"},
					},
				},
			},
			"required": []string{"budgets"},
		}),
		fn("set_goal", "Sets a new financial goal for the user.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"goal_name": map[string]any{
					"type":        "string",
					"description": "Name of the financial goal",
				},
				"target_amount": map[string]any{
					"type":        "number",
					"minimum":     0.01,
					"description": "Total amount to be saved for the goal",
				},
				"target_date": map[string]any{
					"type":        "string",
					"format":      "date",
					"description": "Target date for achieving the goal (YYYY-MM-DD)",
				},
			},
			"required": []string{"goal_name", "target_amount", "target_date"},
		}),
		fn("add_recurring_expenses", "Adds a new recurring expense for the user.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"amount": map[string]any{
					"type":        "number",
					"minimum":     0.01,
					"description": "Expense amount in the user's primary currency",
				},
				"category_id": map[string]any{
					"type":        "integer",
					"description": "ID from the predefined category list",
				},
				"description": map[string]any{
					"type":        "string",
					"maxLength":   255,
					"description": "Brief expense description",
				},
				"next_due_date": map[string]any{
					"type":        "string",
					"format":      "date",
					"description": "Next due date for the recurring expense (YYYY-MM-DD)",
				},
				"frequency": map[string]any{
					"type":        "string",
					"enum":        []string{"daily", "weekly", "monthly", "yearly"},
					"description": "Frequency of the recurring expense",
				},
			},
			"required": []string{"amount", "category_id", "next_due_date", "frequency"},
		}),
		fn("get_expense_summary", "Provides a summary of expenses for a given period.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"start_date": map[string]any{
					"type":        "string",
					"format":      "date",
					"description": "Start date for the expense summary (YYYY-MM-DD)",
				},
				"end_date": map[string]any{
					"type":        "string",
					"format":      "date",
					"description": "End date for the expense summary (YYYY-MM-DD)",
				},
				"category_ids": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "integer"},
					"description": "Category IDs to include in the summary",
				},
				"include_all_categories": map[string]any{
					"type":        "boolean",
					"description": "Include all categories regardless of category_ids",
				},
			},
			"required": []string{"start_date", "end_date"},
		}),
		fn("refine_query", "Rewrites an ambiguous financial question into a precise one.", map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The user question to refine",
				},
			},
			"required": []string{"query"},
		}),
	}
}

func fn(name, description string, params map[string]any) oaiTool {
	return oaiTool{
		Type: "function",
		Function: oaiFunction{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}
