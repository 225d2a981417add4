package evaluate

import "strings"

// Judge rubric templates. Four variants keyed on whether an expected answer
// and a system prompt are available; the rubric wording is configuration
// data and can be replaced wholesale through eval_config["judge_prompt"].
// Placeholders: {prompt}, {response}, {expected_answer}, {system_prompt}.

const judgePromptFull = `You are an expert evaluator. Score this response based on the following rubric:

System Prompt Given to Model: {system_prompt}
Question: {prompt}
Expected Answer: {expected_answer}
Actual Answer: {response}

Evaluation Criteria:
1. Correctness (30%): How accurate is the answer compared to the expected answer?
2. System Prompt Adherence (20%): Does the response follow the instructions, tone, style, and constraints specified in the system prompt?
3. Format Compliance (20%): If a specific format was requested in the question, does the response follow it exactly?
4. Completeness (15%): Does it address all aspects of the question?
5. Clarity (15%): How clear and well-structured is the response?

Important:
- Pay special attention to system prompt requirements. If the system prompt specifies a particular tone, style, format, or behavior, verify the response adheres to it.
- Pay attention to format requirements. If the question asks for a specific format (e.g., "return as JSON", "provide in CSV format", "create a markdown table"), verify the response matches that format exactly.

Return JSON: {"score": <0-1>, "passed": <true/false>, "reason": "<brief reason>", "breakdown": {"correctness": <0-1>, "system_prompt_adherence": <0-1>, "format_compliance": <0-1>, "completeness": <0-1>, "clarity": <0-1>}}`

const judgePromptExpected = `You are an expert evaluator. Score this response based on the following rubric:

Question: {prompt}
Expected Answer: {expected_answer}
Actual Answer: {response}

Evaluation Criteria:
1. Correctness (35%): How accurate is the answer compared to the expected answer?
2. Format Compliance (25%): If a specific format was requested in the question, does the response follow it exactly?
3. Completeness (20%): Does it address all aspects of the question?
4. Clarity (20%): How clear and well-structured is the response?

Important: Pay special attention to format requirements. If the question asks for a specific format (e.g., "return as JSON", "provide in CSV format", "create a markdown table"), verify the response matches that format exactly. Format errors should significantly reduce the format_compliance score.

Return JSON: {"score": <0-1>, "passed": <true/false>, "reason": "<brief reason>", "breakdown": {"correctness": <0-1>, "format_compliance": <0-1>, "completeness": <0-1>, "clarity": <0-1>}}`

const judgePromptSystem = `You are an expert evaluator. Rate this response on a scale of 0-1:

System Prompt Given to Model: {system_prompt}
Question: {prompt}
Answer: {response}

Evaluation Criteria:
1. Quality (40%): Overall quality and appropriateness of the response
2. System Prompt Adherence (30%): Does the response follow the instructions, tone, style, and constraints specified in the system prompt?
3. Completeness (15%): Does it fully address the question?
4. Clarity (15%): How clear and well-structured is the response?

Return JSON: {"score": <0-1>, "passed": <true/false>, "reason": "<brief reason>", "breakdown": {"quality": <0-1>, "system_prompt_adherence": <0-1>, "completeness": <0-1>, "clarity": <0-1>}}`

const judgePromptMinimal = `Rate this response on a scale of 0-1:
Question: {prompt}
Answer: {response}

Return JSON: {"score": <0-1>, "passed": <true/false>, "reason": "<brief reason>"}`

// renderJudgePrompt selects the rubric template for the available context
// and substitutes the placeholders.
func renderJudgePrompt(config map[string]any, in Input) string {
	template := selectTemplate(in)
	if config != nil {
		if override, ok := config["judge_prompt"].(string); ok && override != "" {
			template = override
		}
	}
	return strings.NewReplacer(
		"{prompt}", in.Prompt,
		"{response}", in.Response,
		"{expected_answer}", in.ExpectedAnswer,
		"{system_prompt}", in.SystemPrompt,
	).Replace(template)
}

func selectTemplate(in Input) string {
	switch {
	case in.ExpectedAnswer != "" && in.SystemPrompt != "":
		return judgePromptFull
	case in.ExpectedAnswer != "":
		return judgePromptExpected
	case in.SystemPrompt != "":
		return judgePromptSystem
	default:
		return judgePromptMinimal
	}
}
