package domain

// DefaultResponse is sent whenever the dialogue or the lip-sync pipeline fails.
func DefaultResponse() []Message {
	return []Message{
		{
			Text:             "I'm sorry, there seems to be an error with my brain, or I didn't understand. Could you please repeat your question?",
			FacialExpression: SadExpression,
			Animation:        IdleAnimation,
		},
	}
}

// DefaultIntroduction is used when no canned introduction is configured.
func DefaultIntroduction() []Message {
	return []Message{
		{
			Text:             "Hey there, I'm Jack. I've been to a lot of places, ask me anything about them!",
			FacialExpression: SmileExpression,
			Animation:        TalkingOneAnimation,
		},
	}
}

// MissingApiKeysResponse is sent when the dialogue service has no credentials.
func MissingApiKeysResponse() []Message {
	return []Message{
		{
			Text:             "Please my dear, don't forget to add your API keys!",
			FacialExpression: AngryExpression,
			Animation:        AngryAnimation,
		},
	}
}
