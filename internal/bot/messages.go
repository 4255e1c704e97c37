package bot

// User-facing reply text. Submissions and conflicts each get one specific
// message so a player always knows which rule they hit.
const (
	msgAlreadySubmitted   = "You have already submitted a time for today. Use !edit to change your time."
	msgNoSubmissionToday  = "You have not submitted a time for today. Use !submit to submit your time."
	msgNoTimeInMessage    = "No time found in message. Please use format 00:00 to submit."
	msgNoTimeInImage      = "No time found in message. Please use !submit to submit your time."
	msgRetroUsage         = "Please use format !retro DD-MM-YYYY:hh:mm [hh:]mm:ss for retro submission."
	msgAlreadyForRetroDay = "You have already submitted a time for this day."
	msgStoreFailure       = "Something went wrong saving your time. Please try again."

	msgReminderUsage      = "Please specify an option from enable, disable and set. Format: !reminder option [time]."
	msgReminderNoTime     = "No time found in message. Format: !reminder set time."
	msgReminderDisabled   = "Notifications disabled."
	msgReminderReEnabled  = "Notifications re-enabled."
	msgReminderNoExisting = "No time provided in message and no existing time found in database. " +
		"Please provide a time to enable notifications."
	msgReminderNothingSet = "No reminder found to update. Use !reminder enable [time] first."

	msgMotivationUsage    = "Please specify an option from enable, disable, or set. Format: !motivation option."
	msgMotivationBadTime  = "Please specify a valid time."
	msgMotivationDisabled = "Motivation disabled. I'm always here for you if you need me 🤖."
)

// randomMessages is the 1-in-100 easter egg attached to a submission.
var randomMessages = []string{
	"Thank you so much for submitting a time.",
	"Don't forget, a PlusWord a day keeps the \"nice ones all so far\"s away!",
	"Some people call me PlusBot or maybe even Harv-E, but all I've ever wanted was to be called your friend.",
	"nice one",
	"poggers time bruh",
	"Don't tell the others but you're my favourite.",
	"A wise man once said, \"As distance tests a horse's strength, PlusWord times reveal a person's character.\"",
	"I'll be back. (When you post your next PlusWord time)",
}

// endearments pads the motivation-enabled confirmation.
var endearments = []string{
	"adorable sweetheart",
	"brilliant genius",
	"caring angel",
	"dazzling beauty",
	"enchanting star",
	"fabulous wonder",
	"gentle soul",
	"incredible hero",
	"joyful sunshine",
	"magical dreamer",
	"radiant light",
	"wise sage",
}

// fastMessages celebrate beating the personal threshold.
var fastMessages = []string{
	"Lightning fast! You crushed it! ⚡",
	"You're a puzzle-solving wizard! 🧙‍️",
	"Amazing speed! You nailed it! 🚀",
	"Incredible! You solved that in no time! ⏱️",
	"Wow! You're a puzzle master! 🏆",
	"Brilliant! You're unbeatable! 🥇",
	"You're on fire! Keep it up! 🔥",
	"Phenomenal speed! You're amazing! ⭐",
	"Perfect! You solved it in record time! 🏁",
	"Spectacular! You made that look easy! 😎",
}

// slowMessages encourage on a miss.
var slowMessages = []string{
	"Great effort! You'll nail it next time! 🧩",
	"Almost there! Keep trying, success is within reach! 💪",
	"Nice try! Every attempt brings you closer! 🌟",
	"Don't give up, you're doing fantastic! You'll get it soon! 🚀",
	"So close! Keep going, you'll crack it next time! ⭐",
	"Great work! Persistence will pay off soon! 👍",
	"You're on the right track, success is near! 🌈",
	"Fantastic effort! You're learning and improving each time! 🏅",
	"Wonderful try! Every attempt is a step towards victory! 🌟",
	"Almost there! Stay determined, success is within reach! 🌈",
}
