package core

// prompts.go holds the fixed strings that are not localized.  Patient-facing
// texts live in locales.yaml.

// Gender menu tokens accepted at the gender stage.  Any other reply is kept
// verbatim.
var genderTokens = map[string]string{
	"1": "Male",
	"2": "Female",
}

const (
	// SummaryInstruction asks the summary model for a clinician-facing
	// overview of a stored medical history.
	SummaryInstruction = `You are a medical assistant tasked with summarizing a patient's medical history.
Please provide a concise, well-structured summary of the patient's medical history,
highlighting key information such as:

1. Patient's basic information (name, age, gender)
2. Chronic conditions or ongoing health issues
3. Past medical procedures or surgeries
4. Current medications
5. Allergies or adverse reactions
6. Family history of significant conditions

Format your response in a clear, professional manner that would be useful for a healthcare provider.`

	// NoHistoryMessage is returned instead of calling the model when a record
	// has no stored history.
	NoHistoryMessage = "No medical history available for this patient."
)
