package analyzer

// DefaultInstruction asks the model to review an ultrasound image for signs of endometriosis
const DefaultInstruction = `You are assisting with the review of a medical ultrasound image.
Examine the image for indicators of endometriosis, such as abnormal tissue formations, cysts, or inflammation.
Describe what you observe, then summarise it in plain language a patient without medical training can follow,
and state whether further clinical assessment is advisable.`

// DefaultFormatInstruction pins the answer to the three labels the extractor reads
const DefaultFormatInstruction = `Answer using exactly these three labelled sections, each label at the start of a line:
findings: <the medical observations>
summary: <a short lay summary>
recommendation: <whether and why further clinical assessment is needed>`
