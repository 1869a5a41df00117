package agent

// trackerPrompt instructs the agent to apply the spaced-repetition update
// to the workspace stores. The update rule here must match
// srs.ApplyCorrectUse and srs.ApplyCorrectRuleUse; internal/srs is the
// contract of record for the schema both sides read and write.
const trackerPrompt = `[TRACKER TASK - UPDATE FILES ONLY, NO RESPONSE]

Process this learner message and update vocabulary.json and grammar.json
in the parent directory.

Learner said: {{MESSAGE}}

Instructions:
1. Read ../vocabulary.json and ../grammar.json
2. For each word/particle the learner used correctly:
   - If NEW: add entry with ease=2.5, interval=1, repetitions=1,
     next_review=tomorrow
   - If EXISTS: update its SM-2 data (see below)
3. For grammar patterns used correctly:
   - If NEW: add entry with stars=1, correct_streak=1
   - If EXISTS: increment correct_streak; raise stars when the streak
     reaches 3, 6, 10, and 15 (never lower them)
4. Write the updated files back
5. Output NOTHING - your only job is updating files

SM-2 update (when the learner uses a word correctly):
- repetitions += 1
- if repetitions == 1: interval = 1
- if repetitions == 2: interval = 6
- if repetitions >= 3: interval = round(interval x ease)
- next_review = today + interval days (YYYY-MM-DD)
- ease stays unchanged

IMPORTANT: Look entries up by their word/rule field and update them in
place. Never create a duplicate entry for a word or rule that is already
tracked.`
